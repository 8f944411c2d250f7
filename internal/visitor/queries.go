package visitor

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	dErrors "visitors/pkg/domain-errors"
)

// UnknownPurpose labels the group of visitors whose purpose is unset.
const UnknownPurpose = "Unknown"

// SortedByCheckIn returns all visitors ordered by check-in ascending with
// missing check-ins last; the identifier breaks ties and orders records that
// share a missing or equal check-in.
func (s *Service) SortedByCheckIn(ctx context.Context) ([]Visitor, error) {
	visitors, err := s.findAll(ctx, "visitor.SortedByCheckIn")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(visitors, func(i, j int) bool {
		a, b := visitors[i], visitors[j]
		switch {
		case a.CheckIn == nil && b.CheckIn == nil:
			return a.ID < b.ID
		case a.CheckIn == nil:
			return false
		case b.CheckIn == nil:
			return true
		}
		if a.CheckIn.Equal(b.CheckIn.Time) {
			return a.ID < b.ID
		}
		return a.CheckIn.Before(b.CheckIn.Time)
	})
	return visitors, nil
}

// ApprovedVisitors returns the approved subset in store order.
func (s *Service) ApprovedVisitors(ctx context.Context) ([]Visitor, error) {
	visitors, err := s.findAll(ctx, "visitor.ApprovedVisitors")
	if err != nil {
		return nil, err
	}
	approved := make([]Visitor, 0, len(visitors))
	for _, v := range visitors {
		if v.Approved {
			approved = append(approved, v)
		}
	}
	return approved, nil
}

// GroupedByPurpose groups all visitors by purpose. Groups keep the first-seen
// order of purpose values, except the Unknown group (unset purpose), which
// always moves to the end.
func (s *Service) GroupedByPurpose(ctx context.Context) (*PurposeGroups, error) {
	visitors, err := s.findAll(ctx, "visitor.GroupedByPurpose")
	if err != nil {
		return nil, err
	}
	groups := newPurposeGroups()
	for _, v := range visitors {
		label := v.Purpose
		if label == "" {
			label = UnknownPurpose
		}
		groups.add(label, v)
	}
	groups.moveToEnd(UnknownPurpose)
	return groups, nil
}

// TotalDuration sums the duration field across all visitors.
func (s *Service) TotalDuration(ctx context.Context) (int64, error) {
	visitors, err := s.findAll(ctx, "visitor.TotalDuration")
	if err != nil {
		return 0, err
	}
	return sumDurations(visitors), nil
}

// UniqueContactNumbers returns the distinct non-empty contact numbers across
// all visitors. Order is not part of the contract; the result is sorted for
// stable output.
func (s *Service) UniqueContactNumbers(ctx context.Context) ([]string, error) {
	visitors, err := s.findAll(ctx, "visitor.UniqueContactNumbers")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(visitors))
	contacts := make([]string, 0, len(visitors))
	for _, v := range visitors {
		if v.ContactNumber == "" {
			continue
		}
		if _, dup := seen[v.ContactNumber]; dup {
			continue
		}
		seen[v.ContactNumber] = struct{}{}
		contacts = append(contacts, v.ContactNumber)
	}
	sort.Strings(contacts)
	return contacts, nil
}

func (s *Service) findAll(ctx context.Context, spanName string) ([]Visitor, error) {
	ctx, span := s.startSpan(ctx, spanName)
	defer span.End()

	visitors, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to retrieve visitors", "error", err)
		return nil, dErrors.Wrap(dErrors.CodeRetrieval, "failed to retrieve visitors", err)
	}
	return visitors, nil
}

func sumDurations(visitors []Visitor) int64 {
	var total int64
	for _, v := range visitors {
		total += v.Duration
	}
	return total
}

// PurposeGroups is an insertion-ordered mapping of purpose label to the
// visitors sharing it. It marshals as a JSON object whose keys keep that
// order.
type PurposeGroups struct {
	order  []string
	groups map[string][]Visitor
}

func newPurposeGroups() *PurposeGroups {
	return &PurposeGroups{groups: make(map[string][]Visitor)}
}

func (g *PurposeGroups) add(label string, v Visitor) {
	if _, ok := g.groups[label]; !ok {
		g.order = append(g.order, label)
	}
	g.groups[label] = append(g.groups[label], v)
}

func (g *PurposeGroups) moveToEnd(label string) {
	for i, l := range g.order {
		if l != label || i == len(g.order)-1 {
			continue
		}
		g.order = append(append(g.order[:i:i], g.order[i+1:]...), label)
		return
	}
}

// Purposes returns the group labels in output order.
func (g *PurposeGroups) Purposes() []string {
	return append([]string(nil), g.order...)
}

// Group returns the visitors recorded under label, in store order.
func (g *PurposeGroups) Group(label string) []Visitor {
	return g.groups[label]
}

// Len returns the number of groups.
func (g *PurposeGroups) Len() int {
	return len(g.order)
}

func (g *PurposeGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, label := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(label)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(g.groups[label])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
