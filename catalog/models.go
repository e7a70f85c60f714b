package catalog

import (
	"errors"
	"time"
)

const UnknownCategory = "Unknown Category"

var ErrVideoNotFound = errors.New("video not found")

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Format struct {
	Resolution string `json:"res"`
	SizeBytes  int64  `json:"size"`
}

type Video struct {
	ID          int     `json:"id"`
	CategoryIDs []int   `json:"catIds"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"releaseDate"` // YYYY-MM-DD
	Formats     Formats `json:"formats"`
}

// Author owns its videos and is the unit the backend persists.
// An author without videos is deleted rather than stored.
type Author struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Videos []Video `json:"videos"`
}

// ProcessedVideo is the flattened row shown in the catalog table.
type ProcessedVideo struct {
	ID                   int      `json:"id"`
	Name                 string   `json:"name"`
	Author               string   `json:"author"`
	Categories           []string `json:"categories"`
	HighestQualityFormat string   `json:"highestQualityFormat"`
	ReleaseDate          string   `json:"releaseDate"`
}

func (v Video) Clone() Video {
	out := v
	if v.CategoryIDs != nil {
		out.CategoryIDs = append([]int{}, v.CategoryIDs...)
	}
	out.Formats = v.Formats.Clone()
	return out
}

func (a Author) Clone() Author {
	out := a
	if a.Videos != nil {
		out.Videos = make([]Video, len(a.Videos))
		for i, v := range a.Videos {
			out.Videos[i] = v.Clone()
		}
	}
	return out
}

// VideoIndex returns the position of the video with the given id, or -1.
func (a *Author) VideoIndex(id int) int {
	for i, v := range a.Videos {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// RemoveVideo drops the video at index i, keeping the order of the rest.
func (a *Author) RemoveVideo(i int) Video {
	v := a.Videos[i]
	a.Videos = append(a.Videos[:i:i], a.Videos[i+1:]...)
	return v
}

func (p ProcessedVideo) Clone() ProcessedVideo {
	out := p
	if p.Categories != nil {
		out.Categories = append([]string{}, p.Categories...)
	}
	return out
}

func CloneAuthors(authors []Author) []Author {
	out := make([]Author, len(authors))
	for i, a := range authors {
		out[i] = a.Clone()
	}
	return out
}

// NextVideoID is one past the largest video id across every author.
func NextVideoID(authors []Author) int {
	id := 0
	for _, a := range authors {
		for _, v := range a.Videos {
			if v.ID > id {
				id = v.ID
			}
		}
	}
	return id + 1
}

// NextAuthorID is the current author count plus one. Ids freed by deleted
// authors are not tracked, so this can collide after a deletion.
func NextAuthorID(authors []Author) int {
	return len(authors) + 1
}

// CategoryIDsByNames resolves names to ids, dropping names that match nothing.
func CategoryIDsByNames(names []string, categories []Category) []int {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		for _, c := range categories {
			if c.Name == name {
				ids = append(ids, c.ID)
				break
			}
		}
	}
	return ids
}

// returns the index of the author with exactly this name, or -1
func FindAuthorByName(name string, authors []Author) int {
	for i, a := range authors {
		if a.Name == name {
			return i
		}
	}
	return -1
}

// returns the index of the author owning the video, or -1
func FindAuthorByVideoID(id int, authors []Author) int {
	for i, a := range authors {
		if a.VideoIndex(id) != -1 {
			return i
		}
	}
	return -1
}

func Today() string {
	return time.Now().UTC().Format(time.DateOnly)
}

// formats given to videos created from the console
func DefaultFormats() Formats {
	var f Formats
	f.Set("one", Format{Resolution: "1080p", SizeBytes: 1000})
	return f
}
