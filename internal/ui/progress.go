package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/delfour-co/repolens/internal/rules"
)

const (
	progressStartTemplateConstant        = "[%d/%d] %-14s running\n"
	progressLineTemplateConstant         = "[%d/%d] %-14s %d findings in %s\n"
	progressSingularFindingTemplate      = "[%d/%d] %-14s %d finding in %s\n"
	singleFindingCountConstant           = 1
	unknownTotalCategoryFallbackConstant = 0
)

// ProgressPrinter renders one console line when a rule category starts and
// another when it completes. It is safe for use from the engine's progress
// callback.
type ProgressPrinter struct {
	outputWriter    io.Writer
	totalCategories int
	mutex           sync.Mutex
}

// NewProgressPrinter constructs a printer for the given writer. The total is
// used for the [completed/total] prefix; zero hides nothing but renders the
// observed completion count in both positions.
func NewProgressPrinter(outputWriter io.Writer, totalCategories int) *ProgressPrinter {
	if totalCategories < unknownTotalCategoryFallbackConstant {
		totalCategories = unknownTotalCategoryFallbackConstant
	}
	return &ProgressPrinter{outputWriter: outputWriter, totalCategories: totalCategories}
}

// CategoryProgress reports one category phase. The signature matches the
// rules engine progress callback: done false marks the start of a category,
// done true its completion.
func (printer *ProgressPrinter) CategoryProgress(categoryName string, completedCategories int, findingsCount int, durationMilliseconds int64, done bool) {
	if printer == nil || printer.outputWriter == nil {
		return
	}

	printer.mutex.Lock()
	defer printer.mutex.Unlock()

	if !done {
		startedPosition := completedCategories + 1
		totalCategories := printer.totalCategories
		if totalCategories == unknownTotalCategoryFallbackConstant {
			totalCategories = startedPosition
		}
		fmt.Fprintf(printer.outputWriter, progressStartTemplateConstant, startedPosition, totalCategories, categoryName)
		return
	}

	totalCategories := printer.totalCategories
	if totalCategories == unknownTotalCategoryFallbackConstant {
		totalCategories = completedCategories
	}

	lineTemplate := progressLineTemplateConstant
	if findingsCount == singleFindingCountConstant {
		lineTemplate = progressSingularFindingTemplate
	}

	fmt.Fprintf(
		printer.outputWriter,
		lineTemplate,
		completedCategories,
		totalCategories,
		categoryName,
		findingsCount,
		rules.FormatDuration(time.Duration(durationMilliseconds)*time.Millisecond),
	)
}
