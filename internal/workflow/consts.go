package workflow

import "slices"

// Node names of the content workflow.
const (
	NodeTopicExtraction    = "topic_extraction"
	NodeCheckDB            = "check_db"
	NodeAskDateRelevant    = "ask_date_relevant"
	NodeFetchDB            = "fetch_db"
	NodeFindURL            = "find_url"
	NodeCoreTextExtraction = "core_text_extraction"
	NodeRateRelevance      = "rate_relevance"
	NodeGenerateContent    = "generate_content"
	NodeOutput             = "output"
)

// Output channels of the generation node.
const (
	ChannelLinkedIn    = "linkedin"
	ChannelVideoScript = "instagram_tiktok"
)

// Topics is the fixed taxonomy the classifier must map requests onto.
var Topics = []string{
	"tech",
	"sports",
	"fashion",
	"food",
	"travel",
	"health",
	"business",
	"education",
	"science",
	"art",
	"music",
	"gaming",
	"finance",
	"fitness",
	"cooking",
	"photography",
	"design",
	"marketing",
	"startup",
	"career",
	"motivation",
	"productivity",
	"environment",
	"politics",
	"news",
}

// ValidTopic reports whether t is a member of the taxonomy.
func ValidTopic(t string) bool {
	return slices.Contains(Topics, t)
}
