package ingest

import "github.com/papapumpkin/parallax/internal/catalog"

// View is a point-in-time picture of the ingestion state for presentation.
type View struct {
	Table          catalog.Table
	ProcessedFiles []string
	ActiveFile     string // "" when no file is being tailed
	Phase          catalog.Phase
	PendingBodies  int
	Status         error // last pass, load or persist failure; nil when healthy
}

// Snapshot returns the current View.
func (s *Service) Snapshot() View {
	snap := s.cat.Snapshot()
	v := View{
		Table:          snap.Table,
		ProcessedFiles: snap.ProcessedFiles,
		Phase:          s.cat.Phase(),
		PendingBodies:  s.cat.PendingBodies(),
	}
	if fr, ok := s.coord.Active(); ok {
		v.ActiveFile = fr.Name
	}
	s.mu.Lock()
	v.Status = s.status
	s.mu.Unlock()
	return v
}

// Subscribe returns a channel that receives a View after every pass, tail
// delta and reset. Slow readers only see the latest View. The channel is
// closed by Close.
func (s *Service) Subscribe() <-chan View {
	ch := make(chan View, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Service) publish() {
	v := s.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

func (s *Service) setStatus(err error) {
	s.mu.Lock()
	s.status = err
	s.mu.Unlock()
}
