package services

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

var (
	mobileRegex        = regexp.MustCompile(`^[0-9]{10}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{9,18}$`)
	ifscRegex          = regexp.MustCompile(`^[A-Z]{4}0[A-Z0-9]{6}$`)
	upiRegex           = regexp.MustCompile(`^[\w.\-]{2,256}@[A-Za-z]{2,64}$`)
	phonePeRegex       = regexp.MustCompile(`^[6-9]\d{9}$`)
	clockRegex         = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const dateLayout = "2006-01-02"

func ValidateMobile(field, v string) error {
	if !mobileRegex.MatchString(v) {
		return models.ValidationError(fmt.Sprintf("%s must be a 10-digit number", field))
	}
	return nil
}

func ValidateEmail(v string) error {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return models.ValidationError("email is not a valid address")
	}
	return nil
}

func ValidateAccountNumber(v string) error {
	if !accountNumberRegex.MatchString(v) {
		return models.ValidationError("Invalid account number. It should be between 9 and 18 digits long.")
	}
	return nil
}

func ValidateIFSC(v string) error {
	if !ifscRegex.MatchString(v) {
		return models.ValidationError("Invalid IFSC code. It should follow the format: 4 letters followed by 0 and 6 alphanumeric characters.")
	}
	return nil
}

func ValidateUPI(v string) error {
	if !upiRegex.MatchString(v) {
		return models.ValidationError("Invalid UPI ID. Please provide a valid UPI ID in the format: yourname@bank.")
	}
	return nil
}

func ValidatePhonePe(v string) error {
	if !phonePeRegex.MatchString(v) {
		return models.ValidationError("Invalid PhonePe number. Please provide a valid 10-digit mobile number.")
	}
	return nil
}

// ValidateBankAccount checks a complete bank account; all three fields are required together
func ValidateBankAccount(holder, number, ifsc string) error {
	if holder == "" || number == "" || ifsc == "" {
		return models.ValidationError("Please provide complete bank account details: account holder name, account number, and IFSC code")
	}
	if err := ValidateAccountNumber(number); err != nil {
		return err
	}
	return ValidateIFSC(ifsc)
}

func validateDate(field, v string) error {
	if _, err := time.Parse(dateLayout, v); err != nil {
		return models.ValidationError(fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field))
	}
	return nil
}

func validateHours(hours map[string]models.DayHours) error {
	for day, h := range hours {
		if !isWeekday(day) {
			return models.ValidationError(fmt.Sprintf("unknown weekday %q in operationHours", day))
		}
		if !clockRegex.MatchString(h.OpeningTime) || !clockRegex.MatchString(h.ClosingTime) {
			return models.ValidationError(fmt.Sprintf("operationHours.%s must use HH:MM times", day))
		}
	}
	return nil
}

func isWeekday(day string) bool {
	for _, d := range models.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

func validateLocation(loc *models.GeoPoint) error {
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return models.ValidationError("location is out of range")
	}
	return nil
}

func validateUser(u *models.User) error {
	if err := ValidateMobile("mobile", u.Mobile); err != nil {
		return err
	}
	if u.Email != "" {
		return ValidateEmail(u.Email)
	}
	return nil
}

func validatePartner(p *models.Partner) error {
	if err := ValidateMobile("mobile", p.Mobile); err != nil {
		return err
	}
	if p.Email != "" {
		return ValidateEmail(p.Email)
	}
	return nil
}

func validateDeliveryPartner(d *models.DeliveryPartner) error {
	numbers := []struct{ field, v string }{
		{"mobile", d.Mobile},
		{"whatsappNumber", d.WhatsappNumber},
		{"emergencyContactNumber", d.EmergencyContactNumber},
	}
	if d.SecondaryNumber != "" {
		numbers = append(numbers, struct{ field, v string }{"secondaryNumber", d.SecondaryNumber})
	}
	for _, n := range numbers {
		if err := ValidateMobile(n.field, n.v); err != nil {
			return err
		}
	}
	if err := validateDate("dob", d.DOB); err != nil {
		return err
	}
	if len(d.Languages) == 0 {
		return models.ValidationError("languages is required")
	}
	b := d.BankDetails
	return ValidateBankAccount(b.AccountHolderName, b.AccountNumber, b.IFSCCode)
}

// normalizeCode upper-cases a coupon code and strips spaces
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
