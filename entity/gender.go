package entity

import (
	"database/sql/driver"
	"fmt"
)

// Gender is stored as a single-character code so rows written behind the
// ORM's back (raw SQL, other tools) stay readable.
type Gender int

const (
	GenderUnknown Gender = iota
	GenderMale
	GenderFemale
)

const (
	genderCodeUnknown = "u"
	genderCodeMale    = "m"
	genderCodeFemale  = "f"
)

// GenderFromCode maps a stored code back to its enum value.
func GenderFromCode(code string) (Gender, error) {
	switch code {
	case genderCodeMale:
		return GenderMale, nil
	case genderCodeFemale:
		return GenderFemale, nil
	case genderCodeUnknown, "":
		return GenderUnknown, nil
	default:
		return GenderUnknown, fmt.Errorf("unknown gender code %q", code)
	}
}

func (g Gender) Code() string {
	switch g {
	case GenderMale:
		return genderCodeMale
	case GenderFemale:
		return genderCodeFemale
	default:
		return genderCodeUnknown
	}
}

func (g Gender) String() string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	default:
		return "unknown"
	}
}

// Value implements driver.Valuer.
func (g Gender) Value() (driver.Value, error) {
	return g.Code(), nil
}

// Scan implements sql.Scanner. Drivers disagree on string vs []byte for
// varchar columns, so both are accepted.
func (g *Gender) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*g = GenderUnknown
		return nil
	case string:
		parsed, err := GenderFromCode(v)
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	case []byte:
		parsed, err := GenderFromCode(string(v))
		if err != nil {
			return err
		}
		*g = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Gender", src)
	}
}
