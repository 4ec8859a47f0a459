package store

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := &Store{}
	if err := WithLogger(zerolog.New(&buf))(s); err != nil {
		t.Fatalf("WithLogger: %v", err)
	}

	s.Log.Info().Str("component", "store").Msg("backends opened")
	if !bytes.Contains(buf.Bytes(), []byte("backends opened")) {
		t.Fatalf("store logger did not reach the configured writer: %s", buf.String())
	}
}
