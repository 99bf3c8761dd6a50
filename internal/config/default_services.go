package config

// DefaultServices returns the built-in service registry used when the config
// file does not define one. Each entry records where a service keeps its
// usage rows and how its partition/sort keys encode identity and time.
func DefaultServices() []ServiceEntry {
	return []ServiceEntry{
		{
			ID:                 "title",
			Name:               "Title Service",
			DisplayName:        "Nexus Title",
			UsageTable:         "nx-tt-dev-ver3-usage-tracking",
			ConversationsTable: "nx-tt-dev-ver3-conversations",
			Engines:            []string{"T5", "C7", "pro"},
			Active:             true,
			Keys: KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "user#userId",
				SortKeyPattern:      "engine#engineType#yearMonth",
			},
		},
		{
			ID:                 "proofreading",
			Name:               "Proofreading Service",
			DisplayName:        "Nexus Writing Pro",
			UsageTable:         "nx-wt-prf-usage",
			ConversationsTable: "nx-wt-prf-conversations",
			Engines:            []string{"Basic", "Pro", "Elite"},
			Active:             true,
			Keys: KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "userId",
				SortKeyPattern:      "yearMonth",
			},
		},
		{
			ID:                 "news",
			Name:               "News Service",
			DisplayName:        "W1 Newsroom",
			UsageTable:         "w1-usage",
			ConversationsTable: "w1-conversations-v2",
			Engines:            []string{"w1"},
			Active:             false,
			Keys: KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "userId",
				SortKeyPattern:      "yearMonth",
			},
		},
		{
			ID:                 "foreign",
			Name:               "Foreign News Service",
			DisplayName:        "F1 Foreign Desk",
			UsageTable:         "f1-usage-two",
			ConversationsTable: "f1-conversations-two",
			Engines:            []string{"f1"},
			Active:             false,
			Keys: KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "userId",
				SortKeyPattern:      "date",
			},
		},
		{
			ID:                 "revision",
			Name:               "Revision Service",
			DisplayName:        "Column Revision",
			UsageTable:         "sedaily-column-usage",
			ConversationsTable: "sedaily-column-conversations",
			Engines:            []string{"column"},
			Active:             false,
			Keys: KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "userId",
				SortKeyPattern:      "usageDate#engineType",
			},
		},
		{
			ID:                 "buddy",
			Name:               "Buddy Service",
			DisplayName:        "P2 Buddy",
			UsageTable:         "p2-two-usage-two",
			ConversationsTable: "p2-two-conversations-two",
			Engines:            []string{"p2"},
			Active:             false,
			Keys: KeyEncodingRaw{
				PartitionKeyField:   "PK",
				SortKeyField:        "SK",
				PartitionKeyPattern: "userId",
				SortKeyPattern:      "date",
			},
		},
	}
}
