package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Properties represents the validated JSONB extension map for type-specific
// fields stored in PostgreSQL. The core entity schema is strongly typed;
// anything beyond it (funding amounts, tickers, coordinates) lives here.
type Properties map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (p Properties) Value() (driver.Value, error) {
	return p.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (p *Properties) Scan(value interface{}) error {
	return p.Unmarshal(value)
}

// Marshal converts Properties to JSON bytes
func (p Properties) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal converts JSON bytes or Properties to Properties
func (p *Properties) Unmarshal(value interface{}) error {
	if value == nil {
		*p = Properties{}
		return nil
	}

	if s, ok := value.(Properties); ok {
		*p = Properties(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(b, p)
}

// allowedEntityProperties maps each entity type to the extension keys it may
// carry. Keys outside the map for a type are rejected on validation.
var allowedEntityProperties = map[EntityType][]string{
	EntityTypeCompany:      {"website", "industry", "founded_year", "headquarters", "employee_count"},
	EntityTypePerson:       {"role", "title"},
	EntityTypeInvestor:     {"investor_type", "fund_size", "website"},
	EntityTypeTechnology:   {"category", "maturity"},
	EntityTypeProduct:      {"category", "launch_date"},
	EntityTypeFundingRound: {"amount", "currency", "round", "date", "valuation"},
	EntityTypeLocation:     {"country", "region"},
	EntityTypeEvent:        {"date", "venue"},
}

// ValidateFor checks the property bag against the allowed extension keys for
// the given entity type. A nil or empty bag is always valid.
func (p Properties) ValidateFor(entityType EntityType) error {
	if len(p) == 0 {
		return nil
	}

	allowed, ok := allowedEntityProperties[entityType]
	if !ok {
		return fmt.Errorf("unknown entity type %q", entityType)
	}

	for key := range p {
		found := false
		for _, a := range allowed {
			if key == a {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("property %q is not allowed for entity type %q", key, entityType)
		}
	}

	return nil
}
