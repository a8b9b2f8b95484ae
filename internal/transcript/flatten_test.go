package transcript

import (
	"testing"

	"github.com/raphaelgruber/closeout/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	tests := []struct {
		name  string
		turns []models.Turn
		want  string
	}{
		{"nil", nil, ""},
		{
			"empty assistant dropped",
			[]models.Turn{{Role: models.RoleUser, Content: "Hola"}, {Role: models.RoleAssistant, Content: ""}},
			"USER: Hola",
		},
		{
			"all empty",
			[]models.Turn{{Role: models.RoleUser}, {Role: models.RoleAssistant, Content: "   "}},
			"",
		},
		{
			"newlines collapsed",
			[]models.Turn{{Role: models.RoleUser, Content: "  Quiero\nuna\r\nfecha  "}},
			"USER: Quiero una fecha",
		},
		{
			"joined in order",
			[]models.Turn{
				{Role: models.RoleUser, Content: "Hola"},
				{Role: models.RoleAssistant, Content: "Claro, ¿qué fecha?"},
				{Role: models.RoleUser, Content: "El 20 de enero"},
			},
			"USER: Hola | ASSISTANT: Claro, ¿qué fecha? | USER: El 20 de enero",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Flatten(tt.turns))
		})
	}
}

func TestFlattenStable(t *testing.T) {
	turns := []models.Turn{
		{Role: models.RoleUser, Content: "Hola\nbuenas"},
		{Role: models.RoleAssistant, Content: "¿En qué le ayudo?"},
	}
	assert.Equal(t, Flatten(turns), Flatten(turns))
}

func TestHasContent(t *testing.T) {
	assert.False(t, HasContent(nil))
	assert.False(t, HasContent([]models.Turn{{Role: models.RoleUser, Content: " \n"}}))
	assert.True(t, HasContent([]models.Turn{{Role: models.RoleUser}, {Role: models.RoleAssistant, Content: "Hola"}}))
}
