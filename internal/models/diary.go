package models

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// PhotoMap maps a date key to encoded images in upload order.
type PhotoMap map[string][]string

// MemoMap maps a date key to the memo text saved for that day.
type MemoMap map[string]string

type DiaryEntry struct {
	Date         string   `json:"date"`
	Photos       []string `json:"photos"`
	Memo         string   `json:"memo"`
	HasNutrients bool     `json:"has_nutrients"`
	MemoState    string   `json:"memo_state"`
	MemoDraft    string   `json:"memo_draft,omitempty"`
}

type Profile struct {
	Username      string `json:"username"`
	Gender        string `json:"gender"`
	AgeGroup      string `json:"ageGroup"`
	ActivityLevel string `json:"activity_level"`
	HealthGoal    string `json:"health_goal"`
	ProfileImage  string `json:"profile_image,omitempty"`
}

// ProfileUpdate carries the profile fields a user changed. Nil fields are
// left untouched on the backend.
type ProfileUpdate struct {
	Username      *string `json:"username,omitempty"`
	Gender        *string `json:"gender,omitempty"`
	AgeGroup      *string `json:"age_group,omitempty"`
	ActivityLevel *string `json:"activity_level,omitempty"`
	HealthGoal    *string `json:"health_goal,omitempty"`
}

func (update ProfileUpdate) Empty() bool {
	return update.Username == nil && update.Gender == nil && update.AgeGroup == nil &&
		update.ActivityLevel == nil && update.HealthGoal == nil
}

// ApplyTo copies the changed fields onto profile.
func (update ProfileUpdate) ApplyTo(profile *Profile) {
	if update.Username != nil {
		profile.Username = *update.Username
	}
	if update.Gender != nil {
		profile.Gender = *update.Gender
	}
	if update.AgeGroup != nil {
		profile.AgeGroup = *update.AgeGroup
	}
	if update.ActivityLevel != nil {
		profile.ActivityLevel = *update.ActivityLevel
	}
	if update.HealthGoal != nil {
		profile.HealthGoal = *update.HealthGoal
	}
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)
