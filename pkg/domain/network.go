package domain

import (
	"fmt"
	"sync"
)

// StationID идентификатор станции
type StationID int64

// TrackID идентификатор линии
type TrackID int64

// StationType тип станции
type StationType int

const (
	StationTypeUnspecified StationType = iota
	StationTypeRegular
	StationTypeInterchange
	StationTypeTerminal
	StationTypeDepot
)

// String возвращает строковое представление типа станции
func (s StationType) String() string {
	switch s {
	case StationTypeRegular:
		return "regular"
	case StationTypeInterchange:
		return "interchange"
	case StationTypeTerminal:
		return "terminal"
	case StationTypeDepot:
		return "depot"
	default:
		return "unspecified"
	}
}

// TrackKey уникальный ключ упорядоченной пары станций
type TrackKey struct {
	From StationID
	To   StationID
}

// String возвращает строковое представление ключа
func (k TrackKey) String() string {
	return fmt.Sprintf("%d->%d", k.From, k.To)
}

// Station представляет станцию сети
type Station struct {
	ID        StationID
	Name      string
	Occupancy int64 // максимум пассажиров одновременно на станции
	Type      StationType
	Metadata  map[string]string
}

// Clone создаёт глубокую копию станции
func (s *Station) Clone() *Station {
	clone := &Station{
		ID:        s.ID,
		Name:      s.Name,
		Occupancy: s.Occupancy,
		Type:      s.Type,
		Metadata:  make(map[string]string, len(s.Metadata)),
	}
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// Track представляет направленную линию между станциями.
// Capacity суммируется для параллельных линий одной упорядоченной пары.
type Track struct {
	ID       TrackID
	From     StationID
	To       StationID
	Capacity int64
	Cost     int64
}

// Clone создаёт копию линии
func (t *Track) Clone() *Track {
	return &Track{
		ID:       t.ID,
		From:     t.From,
		To:       t.To,
		Capacity: t.Capacity,
		Cost:     t.Cost,
	}
}

// Key возвращает ключ упорядоченной пары линии
func (t *Track) Key() TrackKey {
	return TrackKey{From: t.From, To: t.To}
}

// IsSelfLoop проверяет, является ли линия петлёй
func (t *Track) IsSelfLoop() bool {
	return t.From == t.To
}

// EffectiveCapacity возвращает пропускную способность линии с учётом
// вместимости конечных станций
func (t *Track) EffectiveCapacity(fromOccupancy, toOccupancy int64) int64 {
	return MinInt64(t.Capacity, MinInt64(fromOccupancy, toOccupancy))
}

// Network представляет граф транспортной сети
type Network struct {
	Stations map[StationID]*Station
	Tracks   map[TrackKey]*Track
	Name     string
	Metadata map[string]string

	// Индексы для быстрого доступа
	outgoing map[StationID][]StationID
	incoming map[StationID][]StationID

	mu sync.RWMutex
}

// NewNetwork создаёт новую пустую сеть
func NewNetwork() *Network {
	return &Network{
		Stations: make(map[StationID]*Station),
		Tracks:   make(map[TrackKey]*Track),
		Metadata: make(map[string]string),
		outgoing: make(map[StationID][]StationID),
		incoming: make(map[StationID][]StationID),
	}
}

// AddStation добавляет станцию в сеть
func (n *Network) AddStation(station *Station) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Stations[station.ID] = station
}

// AddTrack добавляет линию в сеть. Параллельные линии одной
// упорядоченной пары складывают пропускную способность.
func (n *Network) AddTrack(track *Track) {
	n.mu.Lock()
	defer n.mu.Unlock()

	key := track.Key()
	if existing, ok := n.Tracks[key]; ok {
		existing.Capacity += track.Capacity
		if track.Cost < existing.Cost {
			existing.Cost = track.Cost
		}
		return
	}

	n.Tracks[key] = track.Clone()
	n.outgoing[track.From] = append(n.outgoing[track.From], track.To)
	n.incoming[track.To] = append(n.incoming[track.To], track.From)
}

// GetStation возвращает станцию по ID
func (n *Network) GetStation(id StationID) (*Station, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	station, ok := n.Stations[id]
	return station, ok
}

// GetTrack возвращает линию между двумя станциями
func (n *Network) GetTrack(from, to StationID) (*Track, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	track, ok := n.Tracks[TrackKey{From: from, To: to}]
	return track, ok
}

// GetOutgoing возвращает исходящих соседей станции
func (n *Network) GetOutgoing(id StationID) []StationID {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.outgoing[id]
}

// GetIncoming возвращает входящих соседей станции
func (n *Network) GetIncoming(id StationID) []StationID {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.incoming[id]
}

// StationCount возвращает количество станций
func (n *Network) StationCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.Stations)
}

// TrackCount возвращает количество упорядоченных пар с линиями
func (n *Network) TrackCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.Tracks)
}

// Clone создаёт глубокую копию сети
func (n *Network) Clone() *Network {
	n.mu.RLock()
	defer n.mu.RUnlock()

	clone := NewNetwork()
	clone.Name = n.Name

	for k, v := range n.Metadata {
		clone.Metadata[k] = v
	}

	for _, station := range n.Stations {
		clone.Stations[station.ID] = station.Clone()
	}

	for key, track := range n.Tracks {
		clone.Tracks[key] = track.Clone()
		clone.outgoing[track.From] = append(clone.outgoing[track.From], track.To)
		clone.incoming[track.To] = append(clone.incoming[track.To], track.From)
	}

	return clone
}

// Validate проверяет корректность сети
func (n *Network) Validate() []error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var errs []error

	for _, station := range n.Stations {
		if station.Occupancy < 0 {
			errs = append(errs, fmt.Errorf("station %d has negative occupancy", station.ID))
		}
	}

	for key, track := range n.Tracks {
		if _, ok := n.Stations[track.From]; !ok {
			errs = append(errs, fmt.Errorf("track %s references non-existent station %d", key, track.From))
		}
		if _, ok := n.Stations[track.To]; !ok {
			errs = append(errs, fmt.Errorf("track %s references non-existent station %d", key, track.To))
		}
		if track.Capacity < 0 {
			errs = append(errs, fmt.Errorf("track %s has negative capacity", key))
		}
		if track.Cost < 0 {
			errs = append(errs, fmt.Errorf("track %s has negative cost", key))
		}
	}

	return errs
}
