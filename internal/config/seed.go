package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/davmoss/moneybook/internal/book"
)

// Seed describes the contents of a development book, parsed from YAML.
type Seed struct {
	Book       string         `yaml:"book"`
	Currencies []SeedCurrency `yaml:"currencies"`
	Rates      []SeedRate     `yaml:"rates"`
	Accounts   []SeedAccount  `yaml:"accounts"`
}

// SeedCurrency registers a currency. Exponent falls back to the ISO 4217
// exponent when omitted.
type SeedCurrency struct {
	Code     string `yaml:"code"`
	Exponent *int   `yaml:"exponent"`
}

// SeedRate records one dated exchange rate sample.
type SeedRate struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Date string `yaml:"date"`
	Rate string `yaml:"rate"`
}

// SeedAccount opens an account.
type SeedAccount struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"`
	Type     string `yaml:"type"`
	Group    string `yaml:"group"`
}

// LoadSeed parses the YAML seed file at path.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &s, nil
}

// Apply loads the seed into b. Currencies are registered first so rates
// and accounts can refer to them.
func (s *Seed) Apply(b *book.Book) error {
	for _, c := range s.Currencies {
		var err error
		if c.Exponent != nil {
			_, err = b.RegisterCurrency(c.Code, *c.Exponent)
		} else {
			_, err = b.RegisterISOCurrency(c.Code)
		}
		if err != nil {
			return fmt.Errorf("seed currency %s: %w", c.Code, err)
		}
	}
	for _, r := range s.Rates {
		date, err := time.Parse("2006-01-02", r.Date)
		if err != nil {
			return fmt.Errorf("seed rate %s/%s: %w", r.From, r.To, err)
		}
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return fmt.Errorf("seed rate %s/%s: %w", r.From, r.To, err)
		}
		if err := b.SetRate(r.From, r.To, date, rate); err != nil {
			return fmt.Errorf("seed rate %s/%s: %w", r.From, r.To, err)
		}
	}
	for _, a := range s.Accounts {
		acc, err := b.CreateAccount(a.Name, a.Currency, book.AccountType(a.Type))
		if err != nil {
			return fmt.Errorf("seed account %s: %w", a.Name, err)
		}
		if a.Group != "" {
			g := a.Group
			if err := b.EditAccount(acc.ID, book.AccountDetails{Group: &g}); err != nil {
				return fmt.Errorf("seed account %s: %w", a.Name, err)
			}
		}
	}
	b.ClearHistory()
	return nil
}
