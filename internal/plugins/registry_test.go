package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/aspiredoc/internal/model"
)

type mockExtractor struct{ name string }

func (m *mockExtractor) Framework() string                   { return m.name }
func (m *mockExtractor) Extract(_ []SourceFile) *model.Model { return model.New() }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockExtractor{name: "mock"})

	e, err := r.Extractor("mock")
	require.NoError(t, err)
	assert.Equal(t, "mock", e.Framework())

	_, err = r.Extractor("unknown")
	assert.Error(t, err)
}

func TestRegistry_Frameworks(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Frameworks())

	r.Register(&mockExtractor{name: "zeta"})
	r.Register(&mockExtractor{name: "aspire"})
	r.Register(&mockExtractor{name: "aspire"})
	assert.Equal(t, []string{"aspire", "zeta"}, r.Frameworks())
}
