package service

import (
	"context"
	"fmt"
	"io"
	"log"

	"triviamirror/internal/codec"
	"triviamirror/internal/domain"
)

// QuestionLister lists every stored question with its relations
type QuestionLister interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
}

// ImportReport summarizes a question bank import
type ImportReport struct {
	domain.Tally
}

// BankService exports stored questions and re-ingests exported banks
type BankService struct {
	repo     QuestionLister
	resolver CandidateResolver
}

// NewBankService creates a question bank service
func NewBankService(repo QuestionLister, resolver CandidateResolver) *BankService {
	return &BankService{repo: repo, resolver: resolver}
}

// Export writes every stored question in the codec's format
func (s *BankService) Export(ctx context.Context, exporter codec.Exporter, w io.Writer) error {
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list questions: %w", err)
	}
	if questions == nil {
		questions = []domain.Question{}
	}
	return exporter.Export(&domain.QuestionBank{Questions: questions}, w)
}

// Import parses a bank and resolves each question like a fetched one, so
// duplicates are skipped and conflicting copies reported
func (s *BankService) Import(ctx context.Context, importer codec.Importer, r io.Reader) (*ImportReport, error) {
	bank, err := importer.Parse(r)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{}
	for _, q := range bank.Questions {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		c := q.Candidate().Normalized()
		res, err := s.resolver.Resolve(ctx, c)
		if err != nil {
			report.RecordFailure()
			log.Printf("Failed to import question %q: %v", c.Text, err)
			continue
		}
		report.Record(res.Outcome)
	}

	log.Printf("Imported %d questions: %d stored, %d skipped, %d diverged, %d failed",
		report.Processed, report.Stored, report.Skipped, report.Diverged, report.Failed)
	return report, nil
}
