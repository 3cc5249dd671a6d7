package ingredient

import "pantry/domain/shared"

const entityName = "ingredient"

const (
	msgDuplicate      = "同じ名前・期限・保存場所の食材が既に存在します"
	msgDeleted        = "削除済みの食材は変更できません"
	msgNotOwner       = "他のユーザーの食材は変更できません"
	msgAlreadyCreated = "作成イベントは一度だけ記録できます"
)

// NewDuplicateError is raised by the factory and by adapters whose unique
// constraint fired for the same rule.
func NewDuplicateError() error {
	return shared.NewDuplicateError(entityName, msgDuplicate)
}

func NewNotFoundError(id string) error {
	return shared.NewNotFoundError(entityName, id)
}

func NewConcurrentModificationError(id string) error {
	return shared.NewConcurrentModificationError(entityName, id)
}
