// Package domain models wildfire occurrence records and the preparation
// pipeline that turns raw dataset rows into analysis-ready records.
//
// # Data Source
//
// Fire occurrence data originates from the US Forest Service national fire
// occurrence point dataset, distributed as GeoJSON or ESRI shapefile. Each
// feature is one incident: a point location plus flat attributes. The columns
// this service consumes:
//
//	FIRENAME   incident name (often absent)
//	FIREYEAR   calendar year the fire occurred
//	TOTALACRES area burned, in acres
//	STATCAUSE  statistical cause label, e.g. "Lightning", "Debris Burning"
//	STATENAME  administrative state
//
// Source values arrive as strings regardless of logical type: exports are
// inconsistent ("2015", "2015.0", empty, "UNK") so every field goes through
// lenient coercion here rather than in the decoders.
//
// # Preparation Rules
//
// TotalAcres:
//
//	Coerced to a nonnegative float. Unparseable or negative values become 0
//	(an unmeasured fire, not a rejected record).
//
// FireYear:
//
//	Coerced to an integer; fractional inputs are truncated. Records whose
//	year cannot be coerced are dropped entirely, since yearly trend
//	aggregation assumes every retained record has a valid year.
//
// Cause:
//
//	Empty causes default to "Unknown". A fixed lookup table collapses the
//	~dozen source labels into four categories:
//
//	  Natural  Lightning
//	  Human    Equipment Use, Smoking, Campfire, Debris Burning, Railroad,
//	           Arson, Children, Fireworks, Powerline
//	  Other    Miscellaneous, plus any label missing from the table
//	  Unknown  Unknown
//
// Size class:
//
//	TotalAcres is partitioned into five classes with lower-inclusive bin
//	edges at 0, 10, 100, 1000 and 10000 acres:
//
//	  Small [0,10) | Medium [10,100) | Large [100,1000) |
//	  Very Large [1000,10000) | Mega [10000,∞)
//
//	A fire of exactly 10 acres is Medium, exactly 10000 is Mega.
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of state|lat|lon|year|name.
// Reprocessing the same raw row yields the same ID, so downstream inserts can
// use ON CONFLICT DO NOTHING and topic replays stay idempotent. See
// [generateID].
package domain
