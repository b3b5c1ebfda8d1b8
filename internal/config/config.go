package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the environment variable prefix for every setting.
const EnvPrefix = "SURVEY"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Matcher   MatcherConfig   `yaml:"matcher" envconfig:"MATCHER"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Ranking   RankingConfig   `yaml:"ranking" envconfig:"RANKING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Charts    ChartsConfig    `yaml:"charts" envconfig:"CHARTS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/surveyreport.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	BaseDir   string `yaml:"base_dir" envconfig:"BASE_DIR"`
	InputDir  string `yaml:"input_dir" envconfig:"INPUT_DIR" default:"data/surveys" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" default:"data/reports" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// IngestConfig controls how survey exports are read and tagged
type IngestConfig struct {
	Encoding          string            `yaml:"encoding" envconfig:"ENCODING" default:"big5" validate:"required"`
	PhaseColumn       string            `yaml:"phase_column" envconfig:"PHASE_COLUMN" default:"請問公司目前主要處於哪個發展階段？：" validate:"required"`
	ExcludedColumns   []string          `yaml:"excluded_columns" envconfig:"EXCLUDED_COLUMNS" default:"為了後續支付訪談費，請提供您的電子郵件地址（我們將僅用於聯繫您支付訪談費，並妥善保護您的資料）:,IP紀錄,額滿結束註記,使用者紀錄,會員時間,Hash,會員編號,自訂ID,備註,填答時間"`
	RespondentCodes   map[string]string `yaml:"respondent_codes" envconfig:"RESPONDENT_CODES" default:"8RG8Y:公司方,7RGxP:公司方,Yb9D2:公司方,v2xkX:公司方,NwNYM:投資方,v2xYO:投資方,we89e:投資方"`
	PhaseCodes        map[string]string `yaml:"phase_codes" envconfig:"PHASE_CODES" default:"8RG8Y:第一階段,7RGxP:第二階段,Yb9D2:第三階段,NwNYM:第一階段,v2xYO:第二階段,we89e:第三階段"`
	DefaultRespondent string            `yaml:"default_respondent" envconfig:"DEFAULT_RESPONDENT" default:"公司方" validate:"oneof=公司方 投資方"`
	NumericThreshold  float64           `yaml:"numeric_threshold" envconfig:"NUMERIC_THRESHOLD" default:"0.7" validate:"gt=0,lte=1"`
}

// MatcherConfig controls question merging
type MatcherConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold" envconfig:"SIMILARITY_THRESHOLD" default:"0.85" validate:"gt=0,lte=1"`
	AliasFile           string  `yaml:"alias_file" envconfig:"ALIAS_FILE"`
}

// AnalysisConfig controls the statistics engine
type AnalysisConfig struct {
	Alpha           float64       `yaml:"alpha" envconfig:"ALPHA" default:"0.05" validate:"gt=0,lt=1"`
	FisherThreshold int           `yaml:"fisher_threshold" envconfig:"FISHER_THRESHOLD" default:"20" validate:"gte=0"`
	MinGroupSize    int           `yaml:"min_group_size" envconfig:"MIN_GROUP_SIZE" default:"3" validate:"gte=1"`
	Workers         int           `yaml:"workers" envconfig:"WORKERS" default:"4" validate:"gte=1,lte=64"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"5m"`
}

// RankingConfig holds the recommendation score weights
type RankingConfig struct {
	CompletenessWeight float64 `yaml:"completeness_weight" envconfig:"COMPLETENESS_WEIGHT" default:"1.0" validate:"gte=0"`
	DiversityBonus     float64 `yaml:"diversity_bonus" envconfig:"DIVERSITY_BONUS" default:"0.5" validate:"gte=0"`
	PhaseBonus         float64 `yaml:"phase_bonus" envconfig:"PHASE_BONUS" default:"0.5" validate:"gte=0"`
	SmallSamplePenalty float64 `yaml:"small_sample_penalty" envconfig:"SMALL_SAMPLE_PENALTY" default:"1.0" validate:"gte=0"`
	MinSample          int     `yaml:"min_sample" envconfig:"MIN_SAMPLE" default:"10" validate:"gte=0"`
	HighThreshold      float64 `yaml:"high_threshold" envconfig:"HIGH_THRESHOLD" default:"3.0"`
	MediumThreshold    float64 `yaml:"medium_threshold" envconfig:"MEDIUM_THRESHOLD" default:"2.0"`
	MissingFlag        float64 `yaml:"missing_flag" envconfig:"MISSING_FLAG" default:"0.10" validate:"gte=0,lte=1"`
}

// ReportConfig controls the generated documents
type ReportConfig struct {
	Title               string  `yaml:"title" envconfig:"TITLE" default:"問卷描述性統計報告" validate:"required"`
	Subtitle            string  `yaml:"subtitle" envconfig:"SUBTITLE" default:"未上市櫃公司治理問卷分析"`
	Organization        string  `yaml:"organization" envconfig:"ORGANIZATION" default:"國家發展基金管理會"`
	TopicsFile          string  `yaml:"topics_file" envconfig:"TOPICS_FILE"`
	TopicMatchThreshold float64 `yaml:"topic_match_threshold" envconfig:"TOPIC_MATCH_THRESHOLD" default:"0.8" validate:"gt=0,lte=1"`
	FallbackTopics      int     `yaml:"fallback_topics" envconfig:"FALLBACK_TOPICS" default:"20" validate:"gte=1"`
	Font                string  `yaml:"font" envconfig:"FONT" default:"微軟正黑體"`
	WriteAttempts       int     `yaml:"write_attempts" envconfig:"WRITE_ATTEMPTS" default:"3" validate:"gte=1,lte=10"`
}

// ChartsConfig controls chart rendering
type ChartsConfig struct {
	WidthInches   float64       `yaml:"width_inches" envconfig:"WIDTH_INCHES" default:"8" validate:"gt=0"`
	HeightInches  float64       `yaml:"height_inches" envconfig:"HEIGHT_INCHES" default:"4.5" validate:"gt=0"`
	FontFile      string        `yaml:"font_file" envconfig:"FONT_FILE"`
	Rasterize     bool          `yaml:"rasterize" envconfig:"RASTERIZE" default:"false"`
	ChromeTimeout time.Duration `yaml:"chrome_timeout" envconfig:"CHROME_TIMEOUT" default:"60s"`
}

// TelemetryConfig controls tracing and metrics output
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"surveycli"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED" default:"false"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// Load loads configuration from .env, environment variables and an optional YAML file.
// Values present in the YAML file take precedence over the environment.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// getConfigFilePath returns the first config file found in the common locations
func getConfigFilePath() string {
	locations := []string{
		"survey.yaml",
		"configs/survey.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// validate runs struct tag validation and the cross-field checks
func (c *Config) validate() error {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Ranking.MediumThreshold > c.Ranking.HighThreshold {
		return fmt.Errorf("ranking medium threshold %.2f exceeds high threshold %.2f",
			c.Ranking.MediumThreshold, c.Ranking.HighThreshold)
	}

	for code, label := range c.Ingest.RespondentCodes {
		if label != "公司方" && label != "投資方" {
			return fmt.Errorf("respondent code %s maps to unknown label %q", code, label)
		}
	}
	for code, label := range c.Ingest.PhaseCodes {
		if !strings.HasPrefix(label, "第") || !strings.HasSuffix(label, "階段") {
			return fmt.Errorf("phase code %s maps to unknown label %q", code, label)
		}
	}

	if c.Analysis.Timeout <= 0 {
		c.Analysis.Timeout = 5 * time.Minute
	}

	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/surveyreport.log",
		},
		Paths: PathsConfig{
			InputDir:  "data/surveys",
			OutputDir: "data/reports",
			LogsDir:   "logs",
		},
		Ingest: IngestConfig{
			Encoding:    "big5",
			PhaseColumn: "請問公司目前主要處於哪個發展階段？：",
			ExcludedColumns: []string{
				"為了後續支付訪談費，請提供您的電子郵件地址（我們將僅用於聯繫您支付訪談費，並妥善保護您的資料）:",
				"IP紀錄", "額滿結束註記", "使用者紀錄", "會員時間", "Hash", "會員編號", "自訂ID", "備註", "填答時間",
			},
			RespondentCodes: map[string]string{
				"8RG8Y": "公司方", "7RGxP": "公司方", "Yb9D2": "公司方", "v2xkX": "公司方",
				"NwNYM": "投資方", "v2xYO": "投資方", "we89e": "投資方",
			},
			PhaseCodes: map[string]string{
				"8RG8Y": "第一階段", "7RGxP": "第二階段", "Yb9D2": "第三階段",
				"NwNYM": "第一階段", "v2xYO": "第二階段", "we89e": "第三階段",
			},
			DefaultRespondent: "公司方",
			NumericThreshold:  0.7,
		},
		Matcher: MatcherConfig{
			SimilarityThreshold: 0.85,
		},
		Analysis: AnalysisConfig{
			Alpha:           0.05,
			FisherThreshold: 20,
			MinGroupSize:    3,
			Workers:         4,
			Timeout:         5 * time.Minute,
		},
		Ranking: RankingConfig{
			CompletenessWeight: 1.0,
			DiversityBonus:     0.5,
			PhaseBonus:         0.5,
			SmallSamplePenalty: 1.0,
			MinSample:          10,
			HighThreshold:      3.0,
			MediumThreshold:    2.0,
			MissingFlag:        0.10,
		},
		Report: ReportConfig{
			Title:               "問卷描述性統計報告",
			Subtitle:            "未上市櫃公司治理問卷分析",
			Organization:        "國家發展基金管理會",
			TopicMatchThreshold: 0.8,
			FallbackTopics:      20,
			Font:                "微軟正黑體",
			WriteAttempts:       3,
		},
		Charts: ChartsConfig{
			WidthInches:   8,
			HeightInches:  4.5,
			ChromeTimeout: 60 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "surveycli",
			MetricsEnabled: true,
		},
	}
}
