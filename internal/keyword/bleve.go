package keyword

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/pkg/utils"
)

const defaultNameBoost = 3.0

// PatientIndex is an in-memory Bleve index of the roster. It is rebuilt from
// the record store after every change and is safe for concurrent use.
type PatientIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	indexed map[string]struct{}
	logger  *zap.Logger
}

// NewPatientIndex creates an empty index.
func NewPatientIndex(logger *zap.Logger) (*PatientIndex, error) {
	logger = utils.OrNop(logger)
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer lowercases and tokenizes without stemming, which suits
	// Indonesian clinical terms.
	textField := bleve.NewTextFieldMapping()
	textField.Analyzer = standard.Name
	for _, f := range searchable {
		docMapping.AddFieldMappingsAt(f, textField)
	}
	statusField := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("status", statusField)
	im.AddDocumentMapping("patient", docMapping)
	im.DefaultType = "patient"
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &PatientIndex{index: index, indexed: make(map[string]struct{}), logger: logger}, nil
}

func patientDoc(p models.Patient) map[string]interface{} {
	return map[string]interface{}{
		"id":        p.ID,
		"name":      p.Name,
		"condition": p.Condition,
		"room":      p.Room,
		"doctor":    p.AssignedDoctor,
		"history":   p.MedicalHistory,
		"notes":     p.Notes,
		"status":    string(p.Status),
	}
}

// Rebuild makes the index reflect exactly patients.
func (b *PatientIndex) Rebuild(patients []models.Patient) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()
	next := make(map[string]struct{}, len(patients))
	for _, p := range patients {
		if err := batch.Index(p.ID, patientDoc(p)); err != nil {
			return fmt.Errorf("failed to index %s: %w", p.ID, err)
		}
		next[p.ID] = struct{}{}
	}
	for id := range b.indexed {
		if _, ok := next[id]; !ok {
			batch.Delete(id)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	b.indexed = next
	return nil
}

// Refresh is a records change hook: it rebuilds the index and logs failures.
func (b *PatientIndex) Refresh(patients []models.Patient) {
	if err := b.Rebuild(patients); err != nil {
		b.logger.Warn("failed to refresh roster index", zap.Error(err))
	}
}

// Search runs query over every indexed field and returns up to limit hits,
// best first. Name matches are boosted.
func (b *PatientIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]Result, error) {
	nameBoost := defaultNameBoost
	fuzzy := false
	fuzziness := 1
	if opts != nil {
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
		fuzzy = opts.Fuzzy
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}
	if limit <= 0 {
		limit = 20
	}
	terms := tokenizeQuery(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}

	fieldQueries := make([]blevequery.Query, 0, len(searchable))
	for _, field := range searchable {
		q := b.fieldQuery(query, terms, field, fuzzy, fuzziness)
		if field == "name" {
			q.SetBoost(nameBoost)
		}
		fieldQueries = append(fieldQueries, q)
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(fieldQueries...))
	req.Size = limit

	b.mu.RLock()
	res, err := b.index.SearchInContext(ctx, req)
	b.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]Result, len(res.Hits))
	for i, hit := range res.Hits {
		out[i] = Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

type boostable interface {
	blevequery.Query
	SetBoost(b float64)
}

// fieldQuery matches query within one field; with fuzzy it is a disjunction
// of per-term fuzzy queries.
func (b *PatientIndex) fieldQuery(query string, terms []string, field string, fuzzy bool, fuzziness int) boostable {
	if !fuzzy {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		return mq
	}
	if len(terms) == 1 {
		fq := bleve.NewFuzzyQuery(terms[0])
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		return fq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// tokenizeQuery splits query into lowercase letter/digit runs, the same
// boundaries the standard analyzer uses.
func tokenizeQuery(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// DocCount returns the number of indexed patients.
func (b *PatientIndex) DocCount() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Terms returns every indexed term with the number of patients containing it.
func (b *PatientIndex) Terms() (map[string]int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	terms := make(map[string]int)
	for _, field := range searchable {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s dictionary: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			terms[entry.Term] += int(entry.Count)
		}
		_ = dict.Close()
	}
	return terms, nil
}

// Close closes the Bleve index.
func (b *PatientIndex) Close() error {
	return b.index.Close()
}
