package models

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Address is a shipping address. Orders copy it by value at submission time,
// so later edits to the address book never change a placed order.
type Address struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label,omitempty"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	Line1     string `json:"line1"`
	Line2     string `json:"line2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

var (
	mobilePattern  = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

// DestinationComplete reports whether the address carries enough destination
// data for a shipping zone lookup: a full 6-digit pincode and a state.
func (a *Address) DestinationComplete() bool {
	if a == nil {
		return false
	}
	return pincodePattern.MatchString(a.Pincode) && strings.TrimSpace(a.State) != ""
}

// Validate performs the local checks applied before any network call.
// Each failure carries its own message so the UI can point at the field.
func (a *Address) Validate() error {
	switch {
	case strings.TrimSpace(a.FullName) == "":
		return errors.New("full name is required")
	case !mobilePattern.MatchString(a.Phone):
		return errors.New("phone must be a 10-digit mobile number")
	case strings.TrimSpace(a.Line1) == "":
		return errors.New("address line is required")
	case strings.TrimSpace(a.City) == "":
		return errors.New("city is required")
	case strings.TrimSpace(a.State) == "":
		return errors.New("state is required")
	case !pincodePattern.MatchString(a.Pincode):
		return errors.New("pincode must be exactly 6 digits")
	}
	return nil
}

// SelectAddressRequest either picks a saved address by ID or supplies a new
// one inline.
type SelectAddressRequest struct {
	AddressID string   `json:"address_id"`
	Address   *Address `json:"address"`
}

// NewAddressRequest is the payload for the new-address form. Binding tags use
// the custom validators registered below.
type NewAddressRequest struct {
	Label    string `json:"label"`
	FullName string `json:"full_name" binding:"required"`
	Phone    string `json:"phone" binding:"required,inmobile"`
	Line1    string `json:"line1" binding:"required"`
	Line2    string `json:"line2"`
	City     string `json:"city" binding:"required"`
	State    string `json:"state" binding:"required"`
	Pincode  string `json:"pincode" binding:"required,pincode"`
	Country  string `json:"country" binding:"required"`
}

// RegisterValidations adds the regional phone/pincode validators used by the
// binding tags above to gin's validator engine.
func RegisterValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("inmobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})
}
