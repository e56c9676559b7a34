package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/threatline/pkg/domain/interfaces"
	"github.com/secmon-lab/threatline/pkg/domain/model"
	"github.com/secmon-lab/threatline/pkg/domain/types"
	"github.com/secmon-lab/threatline/pkg/repository/memory"
	"github.com/secmon-lab/threatline/pkg/usecase"
)

func TestItemUseCase_CreateItem(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New())
	project := createProject(t, uc)

	t.Run("appends to the end of the table", func(t *testing.T) {
		first, err := uc.Item.CreateItem(ctx, project.ID, types.TableActor, "insider")
		gt.NoError(t, err).Required()
		second, err := uc.Item.CreateItem(ctx, project.ID, types.TableActor, "nation state")
		gt.NoError(t, err).Required()
		gt.Bool(t, second.Position > first.Position).True()

		tables, err := uc.Item.Tables(ctx, project.ID)
		gt.NoError(t, err).Required()
		text, ok := tables.Get(types.TableActor, 1)
		gt.Bool(t, ok).True()
		gt.Value(t, text).Equal("nation state")
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := uc.Item.CreateItem(ctx, project.ID, types.TableIndex(8), "x")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)

		_, err = uc.Item.CreateItem(ctx, project.ID, types.TableActor, "   ")
		gt.Error(t, err).Is(usecase.ErrInvalidInput)
	})

	t.Run("requires an existing project", func(t *testing.T) {
		_, err := uc.Item.CreateItem(ctx, model.NewProjectID(), types.TableActor, "x")
		gt.Error(t, err).Is(usecase.ErrProjectNotFound)
	})
}

func TestItemUseCase_UpdateItem(t *testing.T) {
	ctx := context.Background()
	uc := usecase.New(memory.New())
	project := createProject(t, uc)

	item, err := uc.Item.CreateItem(ctx, project.ID, types.TableVector, "email")
	gt.NoError(t, err).Required()

	updated, err := uc.Item.UpdateItem(ctx, project.ID, item.ID, "malicious email")
	gt.NoError(t, err).Required()
	gt.Value(t, updated.Text).Equal("malicious email")

	_, err = uc.Item.UpdateItem(ctx, project.ID, model.NewItemID(), "x")
	gt.Error(t, err).Is(interfaces.ErrNotFound)
}

func TestItemUseCase_DeleteItem(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	uc := usecase.New(repo)
	project := createProject(t, uc)

	seedTables(t, uc, project.ID, map[types.TableIndex][]string{
		types.TableActor:  {"actor-0", "actor-1", "actor-2"},
		types.TableVector: {"vector-0", "vector-1"},
	})

	touching := addLink(t, uc, project.ID, types.TableActor, 1, types.TableVector, 0)
	later := addLink(t, uc, project.ID, types.TableVector, 1, types.TableActor, 2)
	earlier := addLink(t, uc, project.ID, types.TableActor, 0, types.TableVector, 1)

	items, err := uc.Item.ListItems(ctx, project.ID)
	gt.NoError(t, err).Required()
	_, index, ok := model.LocateItem(items, items[1].ID)
	gt.Bool(t, ok).True()
	gt.Number(t, index).Equal(1)

	gt.NoError(t, uc.Item.DeleteItem(ctx, project.ID, items[1].ID)).Required()

	links, err := uc.Link.ListLinks(ctx, project.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, links).Length(2).Required()

	byID := map[model.LinkID]*model.Link{}
	for _, l := range links {
		byID[l.ID] = l
	}
	_, exists := byID[touching.ID]
	gt.Bool(t, exists).False()

	gt.Value(t, byID[later.ID]).NotNil().Required()
	gt.Number(t, byID[later.ID].Item2).Equal(1)
	gt.Number(t, byID[later.ID].Item1).Equal(1)

	gt.Value(t, byID[earlier.ID]).NotNil().Required()
	gt.Number(t, byID[earlier.ID].Item1).Equal(0)

	tables, err := uc.Item.Tables(ctx, project.ID)
	gt.NoError(t, err).Required()
	text, ok := tables.Get(types.TableActor, 1)
	gt.Bool(t, ok).True()
	gt.Value(t, text).Equal("actor-2")

	gt.Error(t, uc.Item.DeleteItem(ctx, project.ID, items[1].ID)).Is(interfaces.ErrNotFound)
}
