package contact

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ecocart/pkg/validator"
)

func newTestService() (*Service, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewService(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func TestSubmit_Success(t *testing.T) {
	svc, buf := newTestService()

	msg, err := svc.Submit(context.Background(), Input{
		Name:    " Grace ",
		Email:   "grace@example.com",
		Message: "  Do you ship refills?  ",
	})
	require.NoError(t, err)

	assert.Equal(t, "Grace", msg.Name)
	assert.Empty(t, msg.Subject)
	assert.Equal(t, "Do you ship refills?", msg.Message)
	assert.Contains(t, buf.String(), "contact message received")
	assert.Contains(t, buf.String(), `"email":"grace@example.com"`)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"blank name", Input{Name: " ", Email: "a@b.co", Message: "long enough message"}, "name"},
		{"bad email", Input{Name: "A", Email: "nope", Message: "long enough message"}, "email"},
		{"short message after trim", Input{Name: "A", Email: "a@b.co", Message: "   too short  "}, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, buf := newTestService()

			_, err := svc.Submit(context.Background(), tt.in)
			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
			assert.Empty(t, buf.String())
		})
	}
}
