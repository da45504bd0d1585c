package action

import (
	"context"
	"strings"

	"golang.org/x/oauth2"

	"assistant_server/core/domain"
	"assistant_server/core/port/out"
	"assistant_server/pkg/apperr"
	"assistant_server/pkg/logger"
)

const maxFuzzyCandidates = 5

// AttachmentResolver maps a textual file reference to a stored file ID.
type AttachmentResolver struct {
	files out.FileStorePort
}

func NewAttachmentResolver(files out.FileStorePort) *AttachmentResolver {
	return &AttachmentResolver{files: files}
}

// Resolve looks a reference up by exact name first, then falls back to a
// scored substring search. Returns AttachmentNotFound when nothing matches.
func (r *AttachmentResolver) Resolve(ctx context.Context, token *oauth2.Token, reference string) (*domain.ResolvedAttachment, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.AttachmentNotFound(reference)
	}

	exact, err := r.files.FindByName(ctx, token, reference)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		return &domain.ResolvedAttachment{ReferenceText: reference, ResolvedID: exact[0].ID}, nil
	}

	candidates, err := r.files.SearchByName(ctx, token, firstTerm(reference), maxFuzzyCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, apperr.AttachmentNotFound(reference)
	}

	best := pickBestCandidate(reference, candidates)
	logger.Debug("fuzzy-resolved %q to %q", reference, best.Name)

	return &domain.ResolvedAttachment{ReferenceText: reference, ResolvedID: best.ID}, nil
}

// pickBestCandidate scores candidates: full containment of the query beats
// everything, then the count of individually matched query terms decides.
func pickBestCandidate(reference string, candidates []domain.FileCandidate) domain.FileCandidate {
	terms := strings.Fields(strings.ToLower(reference))
	normalizedRef := strings.Join(terms, " ")

	best := candidates[0]
	bestScore := -1
	for _, c := range candidates {
		name := strings.ToLower(c.Name)
		compact := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)

		score := 0
		if strings.Contains(compact, normalizedRef) {
			score += 100
		}
		for _, term := range terms {
			if strings.Contains(name, term) || strings.Contains(compact, term) {
				score++
			}
		}
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}

func firstTerm(reference string) string {
	if fields := strings.Fields(reference); len(fields) > 0 {
		return fields[0]
	}
	return reference
}
