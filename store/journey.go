package store

import "github.com/teranos/orrery/trip"

// BeginJourney activates a journey over stops resolved stops. tourID is
// empty for the default one-project-per-galaxy tour. A tour with no stops
// cannot start.
func (s *Store) BeginJourney(tourID string, stops int) bool {
	if stops <= 0 {
		s.trips.Record(trip.NewStumble(trip.TourContent, "journey has no stops",
			trip.Context{"tour": tourID}))
		return false
	}
	s.state.Journey = JourneyState{Active: true, TourID: tourID, Step: 0, Stops: stops}
	s.publish("startJourney")
	return true
}

// EndJourney deactivates the journey and rewinds it to step 0.
func (s *Store) EndJourney() {
	if !s.state.Journey.Active {
		return
	}
	s.state.Journey = JourneyState{}
	s.publish("endJourney")
}

// AdvanceJourney moves to the next stop. Past the last stop the journey
// ends instead of wrapping. It reports whether the journey is still active.
func (s *Store) AdvanceJourney() bool {
	j := s.state.Journey
	if !j.Active {
		return false
	}
	if j.Step+1 >= j.Stops {
		s.EndJourney()
		return false
	}
	s.state.Journey.Step++
	s.publish("nextJourneyStop")
	return true
}

// RetreatJourney moves to the previous stop. At step 0 it does nothing and
// reports false.
func (s *Store) RetreatJourney() bool {
	j := s.state.Journey
	if !j.Active || j.Step == 0 {
		return false
	}
	s.state.Journey.Step--
	s.publish("prevJourneyStop")
	return true
}

// SetJourneyStep jumps to step. Out-of-range steps do nothing.
func (s *Store) SetJourneyStep(step int) bool {
	j := s.state.Journey
	if !j.Active {
		return false
	}
	if step < 0 || step >= j.Stops {
		s.trips.Record(trip.NewStumble(trip.InvalidReference, "journey step out of range",
			trip.Context{"step": step, "stops": j.Stops}))
		return false
	}
	if step == j.Step {
		return true
	}
	s.state.Journey.Step = step
	s.publish("setJourneyStep")
	return true
}

// SetJourneyPaused pauses or resumes an active journey.
func (s *Store) SetJourneyPaused(paused bool) {
	if !s.state.Journey.Active || s.state.Journey.Paused == paused {
		return
	}
	s.state.Journey.Paused = paused
	s.publish("toggleJourneyPause")
}
