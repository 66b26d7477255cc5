package scoring

// Rounding is how raw table scores are rounded before ranking.
type Rounding string

const (
	RoundNearest100 Rounding = "nearest_100"
	RoundNone       Rounding = "none"
)

// RedFivesCount is the number of red fives per suit.
type RedFivesCount struct {
	Man int `json:"man" yaml:"man"`
	Pin int `json:"pin" yaml:"pin"`
	Sou int `json:"sou" yaml:"sou"`
}

// RuleSet is the full scoring configuration of a club or competition.
// Fields below Rounding are table rules. They are stored and returned as-is;
// nothing in this package interprets them.
type RuleSet struct {
	StartingPoints int        `json:"startingPoints" yaml:"startingPoints"`
	ReturnPoints   int        `json:"returnPoints" yaml:"returnPoints"`
	Uma            [4]float64 `json:"uma" yaml:"uma"`
	Oka            float64    `json:"oka" yaml:"oka"`
	ScoreSum       int        `json:"scoreSum" yaml:"scoreSum"`
	Rounding       Rounding   `json:"rounding" yaml:"rounding"`

	AllowOpenTanyao   bool           `json:"allowOpenTanyao,omitempty" yaml:"allowOpenTanyao,omitempty"`
	UseRedFives       bool           `json:"useRedFives,omitempty" yaml:"useRedFives,omitempty"`
	RedFivesCount     *RedFivesCount `json:"redFivesCount,omitempty" yaml:"redFivesCount,omitempty"`
	UseIppatsu        bool           `json:"useIppatsu,omitempty" yaml:"useIppatsu,omitempty"`
	UseUraDora        bool           `json:"useUraDora,omitempty" yaml:"useUraDora,omitempty"`
	UseKanDora        bool           `json:"useKanDora,omitempty" yaml:"useKanDora,omitempty"`
	UseKanUraDora     bool           `json:"useKanUraDora,omitempty" yaml:"useKanUraDora,omitempty"`
	HeadBump          bool           `json:"headBump,omitempty" yaml:"headBump,omitempty"`
	AgariYame         bool           `json:"agariYame,omitempty" yaml:"agariYame,omitempty"`
	TobiEnd           bool           `json:"tobiEnd,omitempty" yaml:"tobiEnd,omitempty"`
	HonbaPoints       int            `json:"honbaPoints,omitempty" yaml:"honbaPoints,omitempty"`
	NotenPaymentTotal int            `json:"notenPaymentTotal,omitempty" yaml:"notenPaymentTotal,omitempty"`
	RiichiBetPoints   int            `json:"riichiBetPoints,omitempty" yaml:"riichiBetPoints,omitempty"`
}

// Overrides lists the RuleSet fields a competition replaces. Nil fields
// inherit from the club rules.
type Overrides struct {
	StartingPoints *int        `json:"startingPoints,omitempty"`
	ReturnPoints   *int        `json:"returnPoints,omitempty"`
	Uma            *[4]float64 `json:"uma,omitempty"`
	Oka            *float64    `json:"oka,omitempty"`
	ScoreSum       *int        `json:"scoreSum,omitempty"`
	Rounding       *Rounding   `json:"rounding,omitempty"`

	AllowOpenTanyao   *bool          `json:"allowOpenTanyao,omitempty"`
	UseRedFives       *bool          `json:"useRedFives,omitempty"`
	RedFivesCount     *RedFivesCount `json:"redFivesCount,omitempty"`
	UseIppatsu        *bool          `json:"useIppatsu,omitempty"`
	UseUraDora        *bool          `json:"useUraDora,omitempty"`
	UseKanDora        *bool          `json:"useKanDora,omitempty"`
	UseKanUraDora     *bool          `json:"useKanUraDora,omitempty"`
	HeadBump          *bool          `json:"headBump,omitempty"`
	AgariYame         *bool          `json:"agariYame,omitempty"`
	TobiEnd           *bool          `json:"tobiEnd,omitempty"`
	HonbaPoints       *int           `json:"honbaPoints,omitempty"`
	NotenPaymentTotal *int           `json:"notenPaymentTotal,omitempty"`
	RiichiBetPoints   *int           `json:"riichiBetPoints,omitempty"`
}

// RulesMode selects whether a competition inherits or overrides club rules.
type RulesMode string

const (
	ModeInherit  RulesMode = "inherit"
	ModeOverride RulesMode = "override"
)

// Outcome is the ranking and point totals computed for one game.
type Outcome struct {
	Ranks       map[string]int     `json:"ranks"`
	TotalPoints map[string]float64 `json:"totalPoints"`
}
