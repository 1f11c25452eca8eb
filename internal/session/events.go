package session

import (
	"time"

	"anitrack-bot/internal/entity"
)

// Paginator events.

type PageNext struct{}
type PagePrev struct{}

// PageSelect picks one listed title to manage (manage mode only).
type PageSelect struct {
	Title string
}

// ConfirmationFlow events. Either one is terminal.

type ConfirmYes struct{}
type ConfirmNo struct{}

// AddWizard events.

type WizardSetStatus struct {
	Status entity.WatchStatus
}

type WizardSetRating struct {
	Rating int
}

type WizardSetDate struct {
	Date time.Time
}

type WizardToggleFavorite struct{}
type WizardConfirm struct{}
type WizardCancel struct{}

// ControlPanel events.

type PanelSetStatus struct {
	Status entity.WatchStatus
}

type PanelSetEpisodes struct {
	Count int
}

type PanelToggleFavorite struct{}
type PanelViewDetails struct{}
type PanelDelete struct{}
type PanelReload struct{}
type PanelCancel struct{}

func (PageNext) isSessionEvent()             {}
func (PagePrev) isSessionEvent()             {}
func (PageSelect) isSessionEvent()           {}
func (ConfirmYes) isSessionEvent()           {}
func (ConfirmNo) isSessionEvent()            {}
func (WizardSetStatus) isSessionEvent()      {}
func (WizardSetRating) isSessionEvent()      {}
func (WizardSetDate) isSessionEvent()        {}
func (WizardToggleFavorite) isSessionEvent() {}
func (WizardConfirm) isSessionEvent()        {}
func (WizardCancel) isSessionEvent()         {}
func (PanelSetStatus) isSessionEvent()       {}
func (PanelSetEpisodes) isSessionEvent()     {}
func (PanelToggleFavorite) isSessionEvent()  {}
func (PanelViewDetails) isSessionEvent()     {}
func (PanelDelete) isSessionEvent()          {}
func (PanelReload) isSessionEvent()          {}
func (PanelCancel) isSessionEvent()          {}
