// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import "sync"

const (
	cdnFastly     = "https://vs-cmaf-push-uk.live.fastly.md.bbci.co.uk/x=4/i=urn:bbc:pips:service:"
	cdnFastlyB    = "https://vs-cmaf-pushb-uk.live.fastly.md.bbci.co.uk/x=4/i=urn:bbc:pips:service:"
	cdnAkamai     = "https://vs-cmaf-push-uk-live.akamaized.net/x=4/i=urn:bbc:pips:service:"
	cdnAkamaiB    = "https://vs-cmaf-pushb-uk-live.akamaized.net/x=4/i=urn:bbc:pips:service:"
	cdnAkamaiNA   = "https://vs-cmaf-pushb-ntham-gcomm-live.akamaized.net/x=4/i=urn:bbc:pips:service:"
	cdnCloudfront = "https://vs-cmaf-pushb-uk.live.cf.md.bbci.co.uk/x=4/i=urn:bbc:pips:service:"
	cdnBidi       = "https://b2-hobir-sky.live.bidi.net.uk/vs-cmaf-pushb-uk/x=4/i=urn:bbc:pips:service:"
)

func src(key, name, cdn string) Source {
	return Source{Key: key, Name: name, URLPrefix: cdn + key + "/"}
}

// DefaultGroups is the built-in catalog. Append only: positions are persisted.
func DefaultGroups() []Group {
	return []Group{
		{Name: "BBC NEWS", Sources: []Source{
			src("bbc_news_channel_hd", "BBC NEWS CHANNEL HD", cdnFastly),
			src("bbc_world_news_north_america", "BBC WORLD NEWS AMERICA HD", cdnAkamaiNA),
		}},
		{Name: "BBC ONE", Sources: []Source{
			src("bbc_one_hd", "BBC ONE HD", cdnFastly),
			src("bbc_one_wales_hd", "BBC ONE WALES HD", cdnAkamaiB),
			src("bbc_one_scotland_hd", "BBC ONE SCOTLAND HD", cdnAkamaiB),
			src("bbc_one_northern_ireland_hd", "BBC ONE NORTHERN IRELAND HD", cdnAkamaiB),
			src("bbc_one_channel_islands", "BBC ONE CHANNEL ISLANDS HD", cdnAkamaiB),
			src("bbc_one_east", "BBC ONE EAST HD", cdnAkamaiB),
			src("bbc_one_east_midlands", "BBC ONE EAST MIDLANDS HD", cdnAkamaiB),
			src("bbc_one_east_yorkshire", "BBC ONE EAST YORKSHIRE & LINCONSHIRE HD", cdnAkamaiB),
			src("bbc_one_london", "BBC ONE LONDON HD", cdnAkamai),
			src("bbc_one_north_east", "BBC ONE NORTH EAST HD", cdnCloudfront),
			src("bbc_one_north_west", "BBC ONE NORTH WEST HD", cdnCloudfront),
			src("bbc_one_south", "BBC ONE SOUTH HD", cdnAkamaiB),
			src("bbc_one_south_east", "BBC ONE SOUTH EAST HD", cdnCloudfront),
			src("bbc_one_south_west", "BBC ONE SOUTH WEST HD", cdnAkamaiB),
			src("bbc_one_west", "BBC ONE WEST HD", cdnCloudfront),
			src("bbc_one_west_midlands", "BBC ONE WEST MIDLANDS HD", cdnAkamaiB),
			src("bbc_one_yorks", "BBC ONE YORKSHIRE HD", cdnCloudfront),
		}},
		{Name: "BBC TWO", Sources: []Source{
			src("bbc_two_hd", "BBC TWO HD", cdnAkamai),
			src("bbc_two_northern_ireland_hd", "BBC TWO NORTHERN IRELAND HD", cdnAkamaiB),
			src("bbc_two_wales_digital", "BBC TWO WALES DIGITAL", cdnFastlyB),
		}},
		{Name: "OTHER", Sources: []Source{
			src("bbc_three_hd", "BBC THREE HD", cdnAkamaiB),
			src("bbc_four_hd", "BBC FOUR HD", cdnCloudfront),
			src("cbbc_hd", "CBBC HD", cdnBidi),
			src("cbeebies_hd", "CBEEBIES HD", cdnAkamaiB),
			src("bbc_scotland_hd", "BBC SCOTLAND HD", cdnAkamaiB),
			src("bbc_parliament", "BBC PARLIAMENT", cdnAkamaiB),
			src("bbc_alba", "BBC ALBA", cdnAkamaiB),
			src("s4cpbs", "S4C", cdnAkamaiB),
		}},
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New(DefaultGroups())
		if err != nil {
			panic("channels: built-in catalog is invalid: " + err.Error())
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
