package backendtest

import "catalog-site/catalog"

// Categories is a small category list shared by tests.
func Categories() []catalog.Category {
	return []catalog.Category{
		{ID: 1, Name: "Thriller"},
		{ID: 2, Name: "Crime"},
		{ID: 3, Name: "Drama"},
	}
}

// Authors returns two authors: David Munch with two videos and Li Sun Chi
// with one.
func Authors() []catalog.Author {
	return []catalog.Author{
		{ID: 1, Name: "David Munch", Videos: []catalog.Video{
			video(1, "Night Hunter", "2018-08-09", []int{1, 2}, "1080p", 1000),
			video(2, "Lost Key", "2019-01-15", []int{3}, "720p", 500),
		}},
		{ID: 2, Name: "Li Sun Chi", Videos: []catalog.Video{
			video(3, "Ocean Depths", "2021-03-01", []int{3}, "480p", 200),
		}},
	}
}

func video(id int, name, released string, cats []int, res string, size int64) catalog.Video {
	var f catalog.Formats
	f.Set("one", catalog.Format{Resolution: res, SizeBytes: size})
	return catalog.Video{ID: id, CategoryIDs: cats, Name: name, ReleaseDate: released, Formats: f}
}
