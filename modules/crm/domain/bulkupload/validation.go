package bulkupload

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	FieldContactName  = "Contact Name"
	FieldContactEmail = "Contact Email"
	FieldContactPhone = "Contact Phone"
	FieldClientName   = "Client Name"
	FieldIndustry     = "Industry"
	FieldWebsite      = "Website"

	MaxNameLength    = 255
	MaxEmailLength   = 255
	MaxWebsiteLength = 500
	MinPhoneLength   = 7
	MaxPhoneLength   = 20
)

var (
	ContactFields = []string{FieldContactName, FieldContactEmail, FieldContactPhone}
	ClientFields  = []string{FieldClientName, FieldIndustry, FieldWebsite}
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+$`)
	phonePattern = regexp.MustCompile(`^[0-9+()\-.\s]+$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "strict_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone_chars", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "phone_length", func(fl validator.FieldLevel) bool {
		n := len(NormalizePhone(fl.Field().String()))
		return n >= MinPhoneLength && n <= MaxPhoneLength
	})
	mustRegister(v, "website", func(fl validator.FieldLevel) bool {
		return validWebsite(fl.Field().String())
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

type contactInput struct {
	Name  string `validate:"required_with=Email Phone,max=255"`
	Email string `validate:"omitempty,strict_email,max=255"`
	Phone string `validate:"omitempty,phone_chars,phone_length"`
}

type clientInput struct {
	Name     string `validate:"required,max=255"`
	Industry string `validate:"required"`
	Website  string `validate:"omitempty,max=500,website"`
}

var messages = map[string]map[string]string{
	"contactInput.Name": {
		"required_with": "Contact name is required when email or phone is provided",
		"max":           "Contact name must be 255 characters or less",
	},
	"contactInput.Email": {
		"strict_email": "Invalid email format",
		"max":          "Email must be 255 characters or less",
	},
	"contactInput.Phone": {
		"phone_chars":  "Phone number contains invalid characters",
		"phone_length": "Phone number must be between 7 and 20 characters",
	},
	"clientInput.Name": {
		"required": "Client name is required",
		"max":      "Client name must be 255 characters or less",
	},
	"clientInput.Industry": {
		"required": "Industry is required",
	},
	"clientInput.Website": {
		"max":     "Website must be 500 characters or less",
		"website": "Invalid website URL",
	},
}

var fieldNames = map[string]string{
	"contactInput.Name":    FieldContactName,
	"contactInput.Email":   FieldContactEmail,
	"contactInput.Phone":   FieldContactPhone,
	"clientInput.Name":     FieldClientName,
	"clientInput.Industry": FieldIndustry,
	"clientInput.Website":  FieldWebsite,
}

func toRowErrors(row int, err error) []RowError {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []RowError{{Row: row, Message: err.Error()}}
	}
	out := make([]RowError, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.StructNamespace()
		msg, ok := messages[ns][fe.Tag()]
		if !ok {
			msg = fe.Error()
		}
		out = append(out, RowError{Row: row, Field: fieldNames[ns], Message: msg})
	}
	return out
}

// ValidateContactRow applies the contact rules. A row with no name, email
// and phone is valid.
func ValidateContactRow(c Contact) []RowError {
	in := contactInput{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Phone: strings.TrimSpace(c.Phone),
	}
	return toRowErrors(c.RowNumber, validate.Struct(in))
}

// ValidateClientRow applies the client rules and attributes the errors to
// firstRow. A client without contacts has no row to carry errors, so
// firstRow <= 0 yields none.
func ValidateClientRow(c Client, firstRow int) []RowError {
	if firstRow <= 0 {
		return nil
	}
	in := clientInput{
		Name:     strings.TrimSpace(c.Name),
		Industry: strings.TrimSpace(c.Industry),
		Website:  strings.TrimSpace(c.Website),
	}
	return toRowErrors(firstRow, validate.Struct(in))
}

// NormalizePhone strips whitespace.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

// NormalizeWebsite prefixes https:// when no scheme is given.
func NormalizeWebsite(website string) string {
	website = strings.TrimSpace(website)
	if website == "" {
		return ""
	}
	lower := strings.ToLower(website)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return website
	}
	return "https://" + website
}

func validWebsite(website string) bool {
	if strings.ContainsFunc(website, unicode.IsSpace) {
		return false
	}
	u, err := url.Parse(NormalizeWebsite(website))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}

// Validate recomputes every contact and client error in the batch. Errors
// on other fields (for example ones produced by the parser) are kept.
func Validate(b *PreviewBatch) {
	rows := b.rowSet()
	b.dropFields(rows, ContactFields)
	b.dropFields(rows, ClientFields)
	for _, c := range b.Contacts {
		b.Errors = append(b.Errors, ValidateContactRow(c)...)
	}
	for _, c := range b.Clients {
		first, _ := b.FirstRowFor(c.Key())
		b.Errors = append(b.Errors, ValidateClientRow(c, first)...)
	}
	b.SortLedger()
}

// DetectWarnings lists non-blocking findings: an email repeated on a later
// row is reported there, pointing back at the first occurrence.
func DetectWarnings(b *PreviewBatch) []RowWarning {
	seen := make(map[string]int, len(b.Contacts))
	var out []RowWarning
	for _, c := range b.Contacts {
		email := strings.ToLower(strings.TrimSpace(c.Email))
		if email == "" {
			continue
		}
		if first, ok := seen[email]; ok {
			out = append(out, RowWarning{
				Row:     c.RowNumber,
				Message: fmt.Sprintf("Email %s is also used on row %d", strings.TrimSpace(c.Email), first),
			})
			continue
		}
		seen[email] = c.RowNumber
	}
	return out
}
