// Package normalize keeps document trees well formed. The Engine applies an
// ordered rule table depth-first and bottom-up, one repair at a time, and
// rescans until no rule fires.
package normalize

import (
	"log/slog"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
)

// Engine repairs document trees. It holds no per-document state and is
// safe for concurrent use on different documents.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a normalization engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// target is the node under evaluation together with where it sits.
type target struct {
	parent *doctree.Node
	index  int
	node   *doctree.Node
	root   bool
}

// Normalize repairs doc in place until it satisfies every invariant and
// returns the number of repairs applied.
func (e *Engine) Normalize(doc *doctree.Document) int {
	root := doc.Root()
	limit := config.NormalizeIterationsPerNode*countNodes(root) + config.NormalizeIterationsBase

	for i := 0; ; i++ {
		if i >= limit {
			e.logger.Warn("normalization did not converge",
				"iterations", i,
				"nodes", countNodes(root),
			)
			return i
		}
		if !e.repairFirst(&target{node: root, root: true}) {
			return i
		}
	}
}

// IsNormalized reports whether no rule would fire on doc.
func (e *Engine) IsNormalized(doc *doctree.Document) bool {
	probe := doc.Clone()
	return !e.repairFirst(&target{node: probe.Root(), root: true})
}

// repairFirst finds the first node, children before parents, on which a
// rule fires and applies that one repair.
func (e *Engine) repairFirst(t *target) bool {
	n := t.node
	if !n.IsText() {
		for i := 0; i < len(n.Children); i++ {
			child := &target{parent: n, index: i, node: n.Children[i]}
			if e.repairFirst(child) {
				return true
			}
		}
	}

	for _, r := range rules {
		if r.apply(t) {
			e.logger.Debug("normalization rule fired",
				"rule", r.name,
				"type", string(n.Type),
			)
			return true
		}
	}
	return false
}

func countNodes(n *doctree.Node) int {
	count := 1
	for _, c := range n.Children {
		count += countNodes(c)
	}
	return count
}
