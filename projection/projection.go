// Package projection flattens authors and their videos into table rows.
package projection

import (
	"fmt"

	"catalog-site/catalog"
)

// Project emits one row per video, in author order then video order.
func Project(authors []catalog.Author, categories []catalog.Category) []catalog.ProcessedVideo {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		if _, ok := names[c.ID]; !ok {
			names[c.ID] = c.Name
		}
	}

	rows := make([]catalog.ProcessedVideo, 0)
	for _, author := range authors {
		for _, video := range author.Videos {
			rows = append(rows, catalog.ProcessedVideo{
				ID:                   video.ID,
				Name:                 video.Name,
				Author:               author.Name,
				Categories:           categoryNames(video.CategoryIDs, names),
				HighestQualityFormat: Label(video.Formats),
				ReleaseDate:          video.ReleaseDate,
			})
		}
	}
	return rows
}

func categoryNames(ids []int, names map[int]string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		name, ok := names[id]
		if !ok {
			name = catalog.UnknownCategory
		}
		out[i] = name
	}
	return out
}

// PickBestFormat returns the name of the largest format. Equal sizes are
// broken by comparing the resolution strings byte-wise, so "720p" beats
// "1080p". Entries are visited in key order and the first one seeds the
// result.
//
// formats must not be empty; an empty mapping yields "".
func PickBestFormat(formats catalog.Formats) string {
	best := ""
	var bestFormat catalog.Format
	formats.Each(func(name string, f catalog.Format) {
		if best == "" {
			best, bestFormat = name, f
			return
		}
		if f.SizeBytes > bestFormat.SizeBytes ||
			(f.SizeBytes == bestFormat.SizeBytes && f.Resolution > bestFormat.Resolution) {
			best, bestFormat = name, f
		}
	})
	return best
}

// Label renders the best format as "<name> <resolution>".
func Label(formats catalog.Formats) string {
	if formats.Len() == 0 {
		return ""
	}
	name := PickBestFormat(formats)
	f, _ := formats.Get(name)
	return fmt.Sprintf("%s %s", name, f.Resolution)
}
