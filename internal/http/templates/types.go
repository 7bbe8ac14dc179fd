package templates

import (
	"dictionary/app/internal/lookup"
	"dictionary/app/internal/theme"
)

// AppTitle is shown in the navbar and the document title.
const AppTitle = "Dictionary App"

// ResultRegionID is the id of the element holding the current lookup view.
const ResultRegionID = "result"

// LoadingText is announced to assistive technology while a lookup is in flight.
const LoadingText = "Loading…"

// RecentLookupView is one row of the recent lookups list.
type RecentLookupView struct {
	Word    string
	Text    string
	IsError bool
}

// PageData bundles everything the lookup page renders.
type PageData struct {
	Word   string
	View   lookup.View
	Theme  theme.Theme
	Recent []RecentLookupView
}

// ErrorPageData holds information for rendering an error view.
type ErrorPageData struct {
	StatusLabel string
	Message     string
	Theme       theme.Theme
}
