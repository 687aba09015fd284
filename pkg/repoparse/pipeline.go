package repoparse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/schemalift-labs/schemalift/pkg/ddl"
	"github.com/schemalift-labs/schemalift/pkg/query"
	"github.com/schemalift-labs/schemalift/pkg/schema"
)

// DefaultStatementTimeout bounds the time spent on a single statement.
// Pathological statements (usually machine-generated) are skipped and
// counted rather than retried.
const DefaultStatementTimeout = time.Second

// Result is the complete extraction output for one repository.
type Result struct {
	Repository  string
	Model       *schema.Model
	Queries     []*query.Query
	Diagnostics []query.Diagnostic
	Report      ddl.Report
}

// Pipeline runs the staged extraction for single repositories.
type Pipeline struct {
	logger           *slog.Logger
	statementTimeout time.Duration
}

// NewPipeline creates a pipeline. A zero statement timeout falls back to
// the default.
func NewPipeline(logger *slog.Logger, statementTimeout time.Duration) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if statementTimeout <= 0 {
		statementTimeout = DefaultStatementTimeout
	}
	return &Pipeline{logger: logger, statementTimeout: statementTimeout}
}

// fileStatements is the pre-split statement list of one file.
type fileStatements struct {
	file  *SQLFile
	stmts []string
	kinds []ddl.StatementKind
}

// Run executes all stages over the repository's files. Stages run
// strictly in order with a barrier between them; within a stage, files
// are processed sequentially in input order. Only cancellation of the
// passed context aborts the repository; every narrower failure is
// recovered, counted and logged.
func (p *Pipeline) Run(ctx context.Context, repo *Repository) (*Result, error) {
	model := schema.NewModel()
	extractor := ddl.NewExtractor(model, p.logger)

	res := &Result{Repository: repo.Name, Model: model}

	files := p.splitFiles(repo, &res.Report)

	for _, stage := range Stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch stage {
		case StageFkFixup:
			resolved, unresolved := extractor.ResolveDeferred()
			res.Report.ResolvedFKs += resolved
			res.Report.UnresolvedFKs += unresolved
		case StageQuery:
			if err := p.runQueryStage(ctx, model, files, res); err != nil {
				return nil, err
			}
		default:
			if err := p.runDDLStage(ctx, stage, extractor, files, &res.Report); err != nil {
				return nil, err
			}
		}
	}

	res.Report.DeferredFKs = res.Report.ResolvedFKs + res.Report.UnresolvedFKs
	return res, nil
}

// splitFiles splits and classifies every file's statements once, up front.
func (p *Pipeline) splitFiles(repo *Repository, report *ddl.Report) []fileStatements {
	out := make([]fileStatements, 0, len(repo.Files))
	for i := range repo.Files {
		f := &repo.Files[i]
		stmts, dropped := ddl.SplitStatements(f.Content)
		report.Statements += len(stmts)
		report.LongStatements += dropped

		kinds := make([]ddl.StatementKind, len(stmts))
		for j, s := range stmts {
			kinds[j] = ddl.Classify(s)
		}
		out = append(out, fileStatements{file: f, stmts: stmts, kinds: kinds})
	}
	return out
}

// stageHandles maps a pipeline stage to the statement kinds it consumes.
// Standalone CREATE INDEX rides the alter stage so that indexes defined
// in one file can land on tables created in another.
func stageHandles(stage Stage, kind ddl.StatementKind) bool {
	switch stage {
	case StageCreate:
		return kind == ddl.KindCreateTable || kind == ddl.KindCreateAsSelect
	case StageAlter:
		return kind == ddl.KindAlterTable || kind == ddl.KindCreateIndex
	case StageInsert:
		return kind == ddl.KindInsert
	}
	return false
}

// runDDLStage feeds every matching statement of every file to the
// extractor, bounding each statement with its own deadline.
func (p *Pipeline) runDDLStage(ctx context.Context, stage Stage, extractor *ddl.Extractor, files []fileStatements, report *ddl.Report) error {
	for _, fs := range files {
		for j, stmt := range fs.stmts {
			if !stageHandles(stage, fs.kinds[j]) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			outcomes, err := p.extractOne(ctx, stage, extractor, stmt, fs.file.HashID)
			for _, o := range outcomes {
				report.Observe(o)
			}
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					report.StatementTimeouts++
					p.logger.Debug("statement timed out",
						"stage", stage, "file", fs.file.Path)
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				report.ClausesSkipped++
				p.logger.Debug("statement failed",
					"stage", stage, "file", fs.file.Path, "error", err)
			}
		}
	}
	return nil
}

// extractOne routes a single statement with a per-statement deadline.
func (p *Pipeline) extractOne(ctx context.Context, stage Stage, extractor *ddl.Extractor, stmt, hashID string) ([]ddl.ClauseOutcome, error) {
	stmtCtx, cancel := context.WithTimeout(ctx, p.statementTimeout)
	defer cancel()

	switch ddl.Classify(stmt) {
	case ddl.KindCreateAsSelect:
		return extractor.ExtractCreateAsSelect(stmtCtx, stmt, hashID)
	case ddl.KindCreateTable:
		return extractor.ExtractCreateTable(stmtCtx, stmt, hashID)
	case ddl.KindAlterTable:
		return extractor.ExtractAlterTable(stmtCtx, stmt, hashID)
	case ddl.KindCreateIndex:
		return extractor.ExtractCreateIndex(stmtCtx, stmt)
	case ddl.KindInsert:
		return extractor.ExtractInsert(stmtCtx, stmt, hashID)
	}
	return nil, nil
}

// runQueryStage analyzes the remaining statements that look like
// multi-table reads against the completed model.
func (p *Pipeline) runQueryStage(ctx context.Context, model *schema.Model, files []fileStatements, res *Result) error {
	analyzer := query.NewAnalyzer(model, p.logger)

	for _, fs := range files {
		for j, stmt := range fs.stmts {
			if fs.kinds[j] != ddl.KindOther || !query.IsCandidate(stmt) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			stmtCtx, cancel := context.WithTimeout(ctx, p.statementTimeout)
			q, diags, err := analyzer.Analyze(stmtCtx, stmt)
			cancel()

			res.Diagnostics = append(res.Diagnostics, diags...)
			res.Report.FailedConditions += len(diags)

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
					res.Report.StatementTimeouts++
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Debug("query analysis failed",
					"file", fs.file.Path, "error", err)
				continue
			}
			if q != nil {
				res.Queries = append(res.Queries, q)
				res.Report.Queries++
			}
		}
	}
	return nil
}
