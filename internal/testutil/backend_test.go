package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-console/internal/domain"
)

func TestNextIDSkipsSeededRecords(t *testing.T) {
	b := NewBackend(t)
	b.SeedQueue("Q1", "Support", nil, "C1", "C2")
	b.SeedTicket(domain.Ticket{ID: "T4"})

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, "Q2", b.nextID("Q"))
	assert.Equal(t, "C3", b.nextID("C"))
	assert.Equal(t, "T5", b.nextID("T"))
	assert.Equal(t, "Q6", b.nextID("Q"))
}
