// Package exec 声明宿主侧执行协作者的边界接口。
// 具体实现由宿主环境提供，本库只传递文本与路径。
package exec

import "context"

// ScriptEngine 在宿主环境中执行生成的脚本。
type ScriptEngine interface {
	// RunScript 执行脚本，成功时返回可选的结果对象标识。
	RunScript(ctx context.Context, script string) (resultID string, err error)
}

// AssetImporter 把下载的 3D 资产导入宿主文档。
type AssetImporter interface {
	ImportAsset(ctx context.Context, path string) error
}

// SceneDescriber 生成当前场景/几何的文字描述，用于历史记录。
type SceneDescriber interface {
	DescribeGeometry(ctx context.Context) (string, error)
}
