package model

import "time"

// Edge is one parent→child relationship in the commit DAG
type Edge struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
}

// DateRange is the inclusive [min,max] timestamp span of a result set
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ResultMeta summarizes one extraction run
type ResultMeta struct {
	TotalEvents   int       `json:"total_events"`
	UniqueAuthors int       `json:"unique_authors"`
	TotalBranches int       `json:"total_branches"`
	ExtractedAt   time.Time `json:"extracted_at"`
}

// ExtractionResult is the extraction engine's output unit for one repository.
// Owned by the engine until handed to the orchestrator, which treats it as
// immutable.
type ExtractionResult struct {
	Events        []Event    `json:"events"`
	Relationships []Edge     `json:"relationships"`
	Branches      []string   `json:"branches"`
	Authors       []Author   `json:"authors"`
	DateRange     DateRange  `json:"date_range"`
	Meta          ResultMeta `json:"meta"`
}
