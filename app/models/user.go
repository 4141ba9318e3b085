package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// usernameRe accepts the characters that are legal in a DNS label; hyphen-only
// names are rejected separately because they would produce an empty label.
var usernameRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// User is an account in its capacity as owner of a subdomain- or
// custom-domain-scoped site. The username doubles as the subdomain label under
// the canonical host.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"type:varchar(150);uniqueIndex;not null" json:"username" validate:"required,min=1,max=150,subdomain_label"`
	Email        string `gorm:"type:varchar(200);uniqueIndex;not null" json:"email" validate:"required,email,min=5,max=200"`
	Password     string `gorm:"type:text" json:"-" validate:"required,min=6"`
	CustomDomain string `gorm:"type:varchar(150);uniqueIndex;default:null" json:"custom_domain" validate:"omitempty,fqdn,max=150"`
	CustomCSS    string `gorm:"type:text" json:"-"`
	Contact      bool   `gorm:"default:false" json:"contact"`

	WebsiteTitle *string `gorm:"type:varchar(500);default:null" json:"website_title"`
	Homepage     string  `gorm:"type:longtext" json:"homepage"`
	ShowNav      bool    `gorm:"default:true" json:"show_nav"`

	// subscription fields, owned by the billing reconciler
	IsPremium             bool       `gorm:"default:false;index" json:"is_premium"`
	StripeCustomerID      string     `gorm:"type:varchar(255);index;default:null" json:"-"`
	StripeSubscriptionID  string     `gorm:"type:varchar(255);default:null" json:"-"`
	SubscriptionStartDate *time.Time `gorm:"type:timestamp;default:null" json:"-"`
	SubscriptionEndDate   *time.Time `gorm:"type:timestamp;default:null" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("subdomain_label", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !usernameRe.MatchString(s) {
			return false
		}
		// all-hyphen usernames collapse to an empty DNS label
		for _, r := range s {
			if r != '-' {
				return true
			}
		}
		return false
	})
	return v
}

func (u *User) Validate() error {
	return newValidator().Struct(u)
}

// CreateUser builds a validated user with a hashed password. The caller is
// responsible for persisting it.
func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: pw,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies the provided password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user.
func (u *User) SetPassword(password string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return nil
}

// WebsiteURL returns the absolute URL of the user's site under the canonical
// host.
func (u *User) WebsiteURL(protocol, canonicalHost string) string {
	return fmt.Sprintf("%s//%s.%s", protocol, u.Username, canonicalHost)
}

// HasOnboarded reports whether the user has completed the first onboarding
// step; the account index redirects owners there until a title is set.
func (u *User) HasOnboarded() bool {
	return u.WebsiteTitle != nil
}
