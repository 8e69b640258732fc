package services

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"issuereport/internal/models"
	contextutils "issuereport/internal/utils"
)

const (
	ticketSuffixMin   = 1000
	ticketSuffixRange = 9000
)

// TicketGenerator issues ticket numbers of the form OP-YYYYMMDD-NNNN.
// Numbers are not checked for uniqueness.
type TicketGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewTicketGenerator creates a generator seeded from the current time
func NewTicketGenerator() *TicketGenerator {
	seed := uint64(time.Now().UnixNano())
	return NewTicketGeneratorWithSource(rand.NewPCG(seed, seed>>1|1), time.Now)
}

// NewTicketGeneratorWithSource creates a generator with a fixed random source and clock
func NewTicketGeneratorWithSource(src rand.Source, now func() time.Time) *TicketGenerator {
	if now == nil {
		now = time.Now
	}
	return &TicketGenerator{rng: rand.New(src), now: now}
}

// Generate returns a ticket number for operator and the YYYY-MM-DD date of issue.
// An empty operator becomes "XX"; an unparsable date falls back to today.
func (g *TicketGenerator) Generate(operator models.Operator, dateOfIssue string) string {
	day, err := time.Parse(contextutils.DateLayout, dateOfIssue)
	if err != nil {
		day = g.now()
	}

	g.mu.Lock()
	suffix := ticketSuffixMin + g.rng.IntN(ticketSuffixRange)
	g.mu.Unlock()

	return fmt.Sprintf("%s-%s-%d", operator.TicketCode(), day.Format("20060102"), suffix)
}
