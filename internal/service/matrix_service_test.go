package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMatrixService(t *testing.T) *MatrixService {
	t.Helper()
	personnel, defs := seedRepos(t)
	svc := NewMatrixService(personnel, defs, zap.NewNop())
	svc.now = fixedNow
	return svc
}

func TestBuildMatrix_AllRowsGroupedByCategory(t *testing.T) {
	svc := newMatrixService(t)

	resp, err := svc.BuildMatrix(context.Background(), BuildMatrixRequest{TenantID: "t1"})
	require.NoError(t, err)

	// 两列（alice, bob），两组（NDT, Safety）；email 是个人信息不进 matrix
	require.Len(t, resp.Columns, 2)
	require.Len(t, resp.Groups, 2)
	require.Equal(t, "NDT", resp.Groups[0].Category)
	require.Equal(t, "Safety", resp.Groups[1].Category)

	ndt := resp.Groups[0].Rows[0]
	require.Equal(t, "UT Level 2", ndt.Name)
	require.Len(t, ndt.Cells, 2)
	require.Equal(t, "expiring", ndt.Cells[0].Status) // alice
	require.Equal(t, "none", ndt.Cells[1].Status)     // bob 无记录
}

func TestBuildMatrix_StatusFilterHidesRows(t *testing.T) {
	svc := newMatrixService(t)

	// expired 过滤：只有 bob 的 First Aid 过期；UT Level 2 行隐藏
	resp, err := svc.BuildMatrix(context.Background(), BuildMatrixRequest{
		TenantID: "t1", StatusFilter: "expired",
	})
	require.NoError(t, err)
	require.Len(t, resp.Groups, 1)
	require.Equal(t, "Safety", resp.Groups[0].Category)
	require.Len(t, resp.Groups[0].Rows, 1)
	require.Equal(t, "First Aid", resp.Groups[0].Rows[0].Name)
}

func TestBuildMatrix_RequiresTenant(t *testing.T) {
	svc := newMatrixService(t)
	_, err := svc.BuildMatrix(context.Background(), BuildMatrixRequest{})
	require.Error(t, err)
}
