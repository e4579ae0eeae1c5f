// Package demo generates a deterministic fake snapshot for trying procintel
// without a real spreadsheet.
package demo

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"procintel/internal/types"
)

// Options controls the generated snapshot.
type Options struct {
	Seed         int64
	Processes    int
	Completed    int
	Biddings     int
	Responsibles []string
	Now          time.Time
	// MaxAgeDays bounds how far back arrival dates go.
	MaxAgeDays int
}

// DefaultOptions returns a small, varied snapshot shape.
func DefaultOptions() Options {
	return Options{
		Seed:         42,
		Processes:    40,
		Completed:    25,
		Biddings:     8,
		Responsibles: []string{"DIEGO", "GUDRIAN", "KOHL", "THAYS", "KAREN"},
		Now:          time.Now(),
		MaxAgeDays:   90,
	}
}

var objects = []string{
	"Aquisição de material de expediente",
	"Contratação de serviço de limpeza",
	"Manutenção predial",
	"Locação de veículos",
	"Aquisição de equipamentos de informática",
	"Serviço de vigilância",
	"Fornecimento de combustível",
	"Aquisição de medicamentos",
	"Reforma de unidade de saúde",
	"Serviço de telefonia",
}

// Generate builds a snapshot from opts. The same options always produce the
// same snapshot.
func Generate(opts Options) types.Snapshot {
	if len(opts.Responsibles) == 0 {
		opts.Responsibles = DefaultOptions().Responsibles
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 90
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	f := gofakeit.New(opts.Seed)
	g := &generator{f: f, opts: opts}

	var snap types.Snapshot
	for i := 0; i < opts.Processes; i++ {
		snap.Processes = append(snap.Processes, g.process(false))
	}
	for i := 0; i < opts.Completed; i++ {
		snap.Completed = append(snap.Completed, g.process(true))
	}
	for i := 0; i < opts.Biddings; i++ {
		snap.Biddings = append(snap.Biddings, g.bidding(i+1))
	}
	return snap
}

type generator struct {
	f    *gofakeit.Faker
	opts Options
	seq  int
}

func (g *generator) sei() string {
	g.seq++
	return fmt.Sprintf("%05d-%02d.%d", g.f.Number(1, 99999), g.seq%100, g.opts.Now.Year())
}

func (g *generator) arrival() time.Time {
	age := g.f.Number(0, g.opts.MaxAgeDays)
	hour := g.f.Number(8, 17)
	d := g.opts.Now.AddDate(0, 0, -age)
	t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
	if t.After(g.opts.Now) {
		return g.opts.Now
	}
	return t
}

func (g *generator) process(completed bool) types.ProcessRecord {
	arrival := g.arrival()
	p := types.ProcessRecord{
		ID:          g.f.UUID(),
		Name:        g.f.RandomString(objects),
		SEI:         g.sei(),
		Responsible: g.f.RandomString(g.opts.Responsibles),
		Type:        types.ProcessTypes[g.f.Number(0, len(types.ProcessTypes)-1)],
		Modality:    types.Modalities[g.f.Number(0, len(types.Modalities)-1)],
		ArrivalDate: arrival,
	}
	if g.f.Number(0, 3) == 0 {
		p.Observations = g.f.Sentence(6)
	}
	if completed {
		maxDays := int(g.opts.Now.Sub(arrival).Hours() / 24)
		exit := arrival.AddDate(0, 0, g.f.Number(0, maxDays))
		p.ExitDate = &exit
	}
	return p
}

func (g *generator) bidding(seq int) types.BiddingRecord {
	b := types.BiddingRecord{
		ID:          g.f.UUID(),
		Seq:         fmt.Sprintf("%d", seq),
		Description: "Pregão - " + strings.ToLower(g.f.RandomString(objects)),
		SEI:         g.sei(),
		Preparer:    g.f.RandomString(g.opts.Responsibles),
		Reviewer:    g.f.RandomString(g.opts.Responsibles),
		SystemOwner: g.f.RandomString(g.opts.Responsibles),
		Status:      g.f.RandomString([]string{"AUTORIZADO", "EM ANÁLISE", "AGUARDANDO"}),
	}
	if g.f.Bool() {
		updated := g.opts.Now.AddDate(0, 0, -g.f.Number(0, 14))
		b.UpdatedAt = &updated
	}
	return b
}
