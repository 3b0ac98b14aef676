package normalize

import (
	"testing"

	"github.com/siherrmann/newsgraph/model"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	t.Run("Lowercases and trims", func(t *testing.T) {
		key := Key("  OpenAI  ", model.EntityTypeCompany)
		assert.Equal(t, "openai", key, "Expected key to be lowercased and trimmed")
	})

	t.Run("Strips legal suffix for companies", func(t *testing.T) {
		assert.Equal(t, "openai", Key("OpenAI Inc.", model.EntityTypeCompany), "Expected Inc. to be stripped")
		assert.Equal(t, "siemens", Key("Siemens AG", model.EntityTypeCompany), "Expected AG to be stripped")
		assert.Equal(t, "example", Key("Example Holdings Inc", model.EntityTypeCompany), "Expected stacked suffixes to be stripped")
	})

	t.Run("Strips legal suffix for investors", func(t *testing.T) {
		assert.Equal(t, "sequoia capital", Key("Sequoia Capital LLC", model.EntityTypeInvestor), "Expected LLC to be stripped for investors")
	})

	t.Run("Keeps legal suffix tokens for other types", func(t *testing.T) {
		assert.Equal(t, "inc", Key("Inc", model.EntityTypePerson), "Expected person keys to keep suffix-looking tokens")
	})

	t.Run("Folds punctuation", func(t *testing.T) {
		assert.Equal(t, Key("J.P. Morgan", model.EntityTypeCompany), Key("JP Morgan", model.EntityTypeCompany), "Expected punctuation variants to share a key")
	})

	t.Run("Keeps ampersand", func(t *testing.T) {
		assert.Equal(t, "johnson & johnson", Key("Johnson & Johnson", model.EntityTypeCompany), "Expected ampersand to be preserved")
	})

	t.Run("Collapses whitespace", func(t *testing.T) {
		assert.Equal(t, "sam altman", Key("Sam   Altman", model.EntityTypePerson), "Expected whitespace runs to collapse")
	})

	t.Run("Never strips the whole name", func(t *testing.T) {
		assert.Equal(t, "group", Key("Group", model.EntityTypeCompany), "Expected a suffix-only name to survive")
	})

	t.Run("Idempotent", func(t *testing.T) {
		for _, raw := range []string{"OpenAI Inc.", "J.P. Morgan", "  Sam   Altman ", "Johnson & Johnson"} {
			for _, entityType := range model.AllEntityTypes {
				once := Key(raw, entityType)
				twice := Key(once, entityType)
				assert.Equal(t, once, twice, "Expected Key to be idempotent for %q (%s)", raw, entityType)
			}
		}
	})

	t.Run("Empty input", func(t *testing.T) {
		assert.Equal(t, "", Key("", model.EntityTypeCompany), "Expected empty input to yield an empty key")
		assert.Equal(t, "", Key("  ...  ", model.EntityTypeCompany), "Expected punctuation-only input to yield an empty key")
	})
}
