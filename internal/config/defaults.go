package config

const (
	defaultDataDir                 = "~/.local/share/animethreads"
	defaultArchiveDirName          = "reddit"
	defaultLogDirName              = "logs"
	defaultCatalogFileName         = "anilist.json"
	defaultPostsFileName           = "reddit_latest.json"
	defaultMatchedFileName         = "matched_latest.json"
	defaultIndexFileName           = "archive.db"
	defaultMinTokenLength          = 4
	defaultMinTokenMatch           = 2
	defaultFuzzyThreshold          = 80
	defaultHighFuzzyOverride       = 85
	defaultDebugSampleSize         = 50
	defaultDiscussionMarker        = "discussion"
	defaultSeasonCount             = 4
	defaultEpisodeCount            = 6
	defaultMaxConsecutiveThrottles = 3
	defaultRequestIntervalMillis   = 1000
	defaultThrottleCooldownSeconds = 5
	defaultAniListBaseURL          = "https://graphql.anilist.co"
	defaultAniListPerPage          = 50
	defaultRedditBaseURL           = "https://www.reddit.com"
	defaultRedditSubreddit         = "anime"
	defaultRedditUserAgent         = "animethreads/dev"
	defaultRedditListingLimit      = 800
	defaultRequestTimeoutSeconds   = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
		},
		Matching: Matching{
			MinTokenLength:    defaultMinTokenLength,
			MinTokenMatch:     defaultMinTokenMatch,
			FuzzyThreshold:    defaultFuzzyThreshold,
			HighFuzzyOverride: defaultHighFuzzyOverride,
			DebugSampleSize:   defaultDebugSampleSize,
		},
		Archive: Archive{
			DiscussionMarker: defaultDiscussionMarker,
		},
		Refresh: Refresh{
			SeasonCount:             defaultSeasonCount,
			EpisodeCount:            defaultEpisodeCount,
			MaxConsecutiveThrottles: defaultMaxConsecutiveThrottles,
			RequestIntervalMillis:   defaultRequestIntervalMillis,
			ThrottleCooldownSeconds: defaultThrottleCooldownSeconds,
		},
		AniList: AniList{
			BaseURL:        defaultAniListBaseURL,
			Formats:        []string{"TV", "TV_SHORT", "ONA"},
			PerPage:        defaultAniListPerPage,
			TimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Reddit: Reddit{
			BaseURL:        defaultRedditBaseURL,
			Subreddit:      defaultRedditSubreddit,
			UserAgent:      defaultRedditUserAgent,
			Listings:       []string{"hot", "new", "top"},
			ListingLimit:   defaultRedditListingLimit,
			TimeoutSeconds: defaultRequestTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
