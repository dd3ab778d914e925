package history

import (
	"fmt"
)

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []Info `json:"deleted" yaml:"deleted"`
	Kept    int    `json:"kept" yaml:"kept"`
}

// Prune removes old records, keeping only the most recent keep records.
func (s *Store) Prune(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	infos, err := s.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{Deleted: []Info{}}
	if len(infos) <= keep {
		result.Kept = len(infos)
		return result, nil
	}

	result.Kept = keep
	for _, info := range infos[keep:] {
		if err := s.Delete(info.ID); err != nil {
			return nil, fmt.Errorf("failed to delete history record %s: %w", info.ID, err)
		}
		result.Deleted = append(result.Deleted, info)
	}

	return result, nil
}
