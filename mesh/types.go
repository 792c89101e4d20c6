package mesh

// Phase 标识一次 Meshy 任务所处的阶段。
// 文本生成固定产生 Preview、Refine 两个串行任务；
// 图片生成只有单个任务（Single）。
type Phase string

const (
	PhasePreview Phase = "preview"
	PhaseRefine  Phase = "refine"
	PhaseSingle  Phase = "single"
)

// Status 是任务状态，只能单向前进：
// Pending → Running → {Succeeded | Failed}；两个终态不可再变。
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// terminal 报告状态是否为终态。
func (s Status) terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// rank 给出状态在生命周期中的次序，用于禁止回退。
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusRunning:
		return 1
	case StatusSucceeded, StatusFailed:
		return 2
	}
	return -1
}

// statusFromRemote 映射 Meshy 的状态字符串。
// EXPIRED 视作失败；未知状态按运行中处理。
func statusFromRemote(s string) Status {
	switch s {
	case "PENDING":
		return StatusPending
	case "SUCCEEDED":
		return StatusSucceeded
	case "FAILED", "EXPIRED":
		return StatusFailed
	default:
		return StatusRunning
	}
}

// AssetURLs 收集任务产出的远端地址。
type AssetURLs struct {
	GLB       string
	Thumbnail string
	Textures  []string
}

// Task 是单个远端任务的观察记录。
type Task struct {
	ID              string
	Phase           Phase
	Status          Status
	ProgressPercent int
	AssetURLs       AssetURLs
	ErrorMessage    string
}

// advance 推进任务状态与进度；回退与离开终态的迁移被忽略。
func (t *Task) advance(s Status, progress int) {
	if t.Status.terminal() {
		return
	}
	if s.rank() >= t.Status.rank() {
		t.Status = s
	}
	if progress > t.ProgressPercent {
		t.ProgressPercent = progress
	}
}

// AssetBundle 是一次成功生成的落盘结果。
type AssetBundle struct {
	GLBPath       string
	ThumbnailPath string
	TexturePaths  []string

	// Tasks 按发生顺序记录远端任务（文本生成为 preview、refine 两个）。
	Tasks []Task
}

// ---------------------------------------------------------------------------
// Meshy 线上格式
// ---------------------------------------------------------------------------

type textTo3DRequest struct {
	Mode            string `json:"mode"`
	Prompt          string `json:"prompt,omitempty"`
	ArtStyle        string `json:"art_style"`
	NegativePrompt  string `json:"negative_prompt"`
	AIModel         string `json:"ai_model"`
	Topology        string `json:"topology"`
	TargetPolycount int    `json:"target_polycount"`
	PreviewTaskID   string `json:"preview_task_id,omitempty"`
	EnablePBR       bool   `json:"enable_pbr"`
}

type imageTo3DRequest struct {
	ImageURL        string `json:"image_url"`
	EnablePBR       bool   `json:"enable_pbr"`
	ShouldTexture   bool   `json:"should_texture"`
	Topology        string `json:"topology"`
	TargetPolycount int    `json:"target_polycount"`
}

// createResponse 的 result 字段承载任务 ID。
type createResponse struct {
	Result string `json:"result"`
}

type modelURLs struct {
	GLB  string `json:"glb"`
	FBX  string `json:"fbx"`
	OBJ  string `json:"obj"`
	MTL  string `json:"mtl"`
	USDZ string `json:"usdz"`
}

type textureURLs struct {
	BaseColor string `json:"base_color"`
	Metallic  string `json:"metallic"`
	Normal    string `json:"normal"`
	Roughness string `json:"roughness"`
}

type taskError struct {
	Message string `json:"message"`
}

type taskResponse struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	Progress     int           `json:"progress"`
	ModelURLs    modelURLs     `json:"model_urls"`
	ThumbnailURL string        `json:"thumbnail_url"`
	TextureURLs  []textureURLs `json:"texture_urls"`
	TaskError    *taskError    `json:"task_error"`
}
