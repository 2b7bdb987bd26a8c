package pipeline

import (
	"io"
	"testing"

	"transcriber/internal/config"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewPublisher_Unconfigured(t *testing.T) {
	cases := []*config.Config{
		{},
		{NotionToken: "secret"},
		{NotionDatabaseID: "db"},
	}
	for _, cfg := range cases {
		assert.False(t, NewPublisher(cfg, log.New(io.Discard)).Configured(), "%+v", cfg)
	}
}

func TestNewPublisher_Configured(t *testing.T) {
	assert.True(t, NewPublisher(&config.Config{NotionToken: "secret", NotionDatabaseID: "db"}, log.New(io.Discard)).Configured())
	assert.True(t, NewPublisher(&config.Config{NotionToken: "secret", NotionPageID: "page"}, log.New(io.Discard)).Configured())
}
