package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type plainWriter struct {
	header http.Header
	status int
}

func (p *plainWriter) Header() http.Header {
	if p.header == nil {
		p.header = http.Header{}
	}
	return p.header
}

func (p *plainWriter) Write(b []byte) (int, error) { return len(b), nil }

func (p *plainWriter) WriteHeader(code int) { p.status = code }

func TestStatusWriter_RecordsFirstStatus(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	sw.WriteHeader(http.StatusCreated)
	sw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, sw.status)
}

func TestStatusWriter_DefaultsToOK(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	n, err := sw.Write([]byte("hello"))

	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, http.StatusOK, sw.status)
	assert.Equal(t, 5, sw.bytes)
}

func TestStatusWriter_FlushDelegates(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)

	sw.Flush()

	assert.True(t, rec.Flushed)
}

func TestStatusWriter_FlushWithoutFlusherIsNoop(t *testing.T) {
	sw := newStatusWriter(&plainWriter{})
	assert.NotPanics(t, sw.Flush)
}

func TestStatusWriter_ReusedWhenNested(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	assert.Same(t, sw, newStatusWriter(sw))
}

func TestStatusWriter_ResponseControllerReachesUnderlying(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := newStatusWriter(rec)

	assert.NoError(t, http.NewResponseController(sw).Flush())
	assert.True(t, rec.Flushed)
}
