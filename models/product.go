package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Kind discriminates the two product shapes in the catalog.
type Kind string

const (
	KindCourse Kind = "course"
	KindBook   Kind = "book"
)

// ParseKind maps a query/form value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCourse, KindBook:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("invalid product kind %q", s)
	}
}

type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Levels lists difficulty levels in display order.
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

type Format string

const (
	FormatPDF     Format = "PDF"
	FormatEPUB    Format = "EPUB"
	FormatPDFEPUB Format = "PDF + EPUB"
)

var ErrKindMismatch = errors.New("product details do not match kind")

// Product is the shared shape of every catalog entry. Exactly one of Course
// or Book is set, matching Kind.
type Product struct {
	ID          string                      `gorm:"primaryKey" json:"id" yaml:"id"`
	Slug        string                      `gorm:"uniqueIndex;not null" json:"slug" yaml:"slug"`
	Kind        Kind                        `gorm:"type:varchar(10);index;not null" json:"kind" yaml:"kind"`
	Title       string                      `gorm:"not null" json:"title" yaml:"title"`
	Author      string                      `json:"author" yaml:"author"` // instructor for courses
	Rating      float64                     `json:"rating" yaml:"rating"`
	ReviewCount int                         `json:"reviewCount" yaml:"reviewCount"`
	Price       float64                     `gorm:"not null" json:"price" yaml:"price"`
	OldPrice    *float64                    `json:"oldPrice,omitempty" yaml:"oldPrice"`
	Badge       *string                     `json:"badge,omitempty" yaml:"badge"`
	Thumbnail   string                      `json:"thumbnail" yaml:"thumbnail"`
	Categories  datatypes.JSONSlice[string] `json:"categories" yaml:"categories"`
	Description string                      `json:"description" yaml:"description"`
	CreatedAt   time.Time                   `json:"createdAt" yaml:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt" yaml:"updatedAt"`
	Position    int                         `gorm:"index" json:"-" yaml:"-"` // catalog order, drives relevance

	Course *CourseDetails `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"course,omitempty" yaml:"course"`
	Book   *BookDetails   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"book,omitempty" yaml:"book"`
}

// SyllabusSection is one titled block of a course syllabus.
type SyllabusSection struct {
	Title string   `json:"title" yaml:"title"`
	Items []string `json:"items" yaml:"items"`
}

type CourseDetails struct {
	ID               uint                                 `gorm:"primaryKey" json:"-" yaml:"-"`
	ProductID        string                               `gorm:"uniqueIndex;not null" json:"-" yaml:"-"`
	Level            Level                                `gorm:"type:varchar(20)" json:"level" yaml:"level"`
	LessonsCount     int                                  `json:"lessonsCount" yaml:"lessonsCount"`
	DurationHours    float64                              `json:"duration" yaml:"duration"`
	Language         string                               `json:"language" yaml:"language"`
	Syllabus         datatypes.JSONSlice[SyllabusSection] `json:"syllabus" yaml:"syllabus"`
	PreviewVideoURL  string                               `json:"previewVideoUrl,omitempty" yaml:"previewVideoUrl"`
	WhatYouWillLearn datatypes.JSONSlice[string]          `json:"whatYouWillLearn" yaml:"whatYouWillLearn"`
	Requirements     datatypes.JSONSlice[string]          `json:"requirements" yaml:"requirements"`
	StudentsCount    int                                  `json:"studentsCount" yaml:"studentsCount"`
}

type BookDetails struct {
	ID              uint                        `gorm:"primaryKey" json:"-" yaml:"-"`
	ProductID       string                      `gorm:"uniqueIndex;not null" json:"-" yaml:"-"`
	Pages           int                         `json:"pages" yaml:"pages"`
	Format          Format                      `gorm:"type:varchar(20)" json:"format" yaml:"format"`
	SampleImages    datatypes.JSONSlice[string] `json:"sampleImages" yaml:"sampleImages"`
	TableOfContents datatypes.JSONSlice[string] `json:"tableOfContents" yaml:"tableOfContents"`
	PublishedDate   string                      `json:"publishedDate" yaml:"publishedDate"`
}

// CourseDetails returns the course-only fields; ok is false for books.
func (p *Product) CourseDetails() (*CourseDetails, bool) {
	if p.Kind != KindCourse || p.Course == nil {
		return nil, false
	}
	return p.Course, true
}

// BookDetails returns the book-only fields; ok is false for courses.
func (p *Product) BookDetails() (*BookDetails, bool) {
	if p.Kind != KindBook || p.Book == nil {
		return nil, false
	}
	return p.Book, true
}

// Difficulty is the course level, or "" for books.
func (p *Product) Difficulty() Level {
	if c, ok := p.CourseDetails(); ok {
		return c.Level
	}
	return ""
}

// Validate checks the kind discriminator against the attached details.
func (p *Product) Validate() error {
	if p.ID == "" || p.Slug == "" || p.Title == "" {
		return errors.New("product id, slug and title are required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product %s: price must not be negative", p.ID)
	}
	switch p.Kind {
	case KindCourse:
		if p.Course == nil || p.Book != nil {
			return fmt.Errorf("product %s: %w", p.ID, ErrKindMismatch)
		}
	case KindBook:
		if p.Book == nil || p.Course != nil {
			return fmt.Errorf("product %s: %w", p.ID, ErrKindMismatch)
		}
	default:
		return fmt.Errorf("product %s: invalid kind %q", p.ID, p.Kind)
	}
	return nil
}
