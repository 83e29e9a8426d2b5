package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appleasing "github.com/nhatro/backend/internal/application/leasing"
	"github.com/nhatro/backend/internal/domain/leasing"
	"github.com/nhatro/backend/internal/domain/shared"
	"github.com/nhatro/backend/internal/domain/shared/valueobject"
	"github.com/nhatro/backend/internal/interfaces/http/dto"
)

func newRoomHandler(rooms *MockRoomRepository) *RoomHandler {
	return NewRoomHandler(appleasing.NewRoomService(rooms, nil))
}

func testRoom(t *testing.T) *leasing.Room {
	t.Helper()
	room, err := leasing.NewRoom("P101",
		valueobject.NewMoneyVNDFromInt(3500000),
		valueobject.NewMoneyVNDFromInt(7000000))
	require.NoError(t, err)
	return room
}

func TestRoomHandler_CreateRoom(t *testing.T) {
	t.Run("creates a room", func(t *testing.T) {
		rooms := &MockRoomRepository{}
		h := newRoomHandler(rooms)

		rooms.On("FindByCode", mock.Anything, "P101").Return(nil, shared.ErrNotFound)
		rooms.On("Save", mock.Anything, mock.Anything).Return(nil)

		body := CreateRoomRequest{
			Code:          "P101",
			Floor:         1,
			AreaM2:        "18.5",
			MonthlyRent:   "3500000",
			DepositAmount: "7000000",
			MaxOccupants:  2,
		}
		w := performRequest(t, h.CreateRoom, http.MethodPost, "/rooms", body, nil)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "P101", data["code"])
		assert.Equal(t, "AVAILABLE", data["status"])
	})

	t.Run("duplicate code is 409", func(t *testing.T) {
		rooms := &MockRoomRepository{}
		h := newRoomHandler(rooms)

		rooms.On("FindByCode", mock.Anything, "P101").Return(testRoom(t), nil)

		body := CreateRoomRequest{Code: "P101", MonthlyRent: "3500000", DepositAmount: "7000000"}
		w := performRequest(t, h.CreateRoom, http.MethodPost, "/rooms", body, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("bad rent decimal is 400", func(t *testing.T) {
		rooms := &MockRoomRepository{}
		h := newRoomHandler(rooms)

		body := CreateRoomRequest{Code: "P102", MonthlyRent: "ba trieu", DepositAmount: "7000000"}
		w := performRequest(t, h.CreateRoom, http.MethodPost, "/rooms", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid tariff is rejected", func(t *testing.T) {
		rooms := &MockRoomRepository{}
		h := newRoomHandler(rooms)

		rooms.On("FindByCode", mock.Anything, "P103").Return(nil, shared.ErrNotFound)

		body := CreateRoomRequest{
			Code:          "P103",
			MonthlyRent:   "3500000",
			DepositAmount: "7000000",
			Tariff: &TariffRequest{
				ElectricityTiers: []ElectricityTierRequest{
					{SpanKwh: "50", RatePerKwh: "-1"},
				},
			},
		}
		w := performRequest(t, h.CreateRoom, http.MethodPost, "/rooms", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		rooms.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestRoomHandler_UpdateRoom(t *testing.T) {
	rooms := &MockRoomRepository{}
	h := newRoomHandler(rooms)

	room := testRoom(t)
	rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	rooms.On("SaveWithLock", mock.Anything, room).Return(nil)

	rent := "4000000"
	w := performRequest(t, h.UpdateRoom, http.MethodPut, "/rooms/"+room.ID.String(),
		UpdateRoomRequest{MonthlyRent: &rent}, idParams(room.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4000000", room.MonthlyRent.String())
}

func TestRoomHandler_Maintenance(t *testing.T) {
	rooms := &MockRoomRepository{}
	h := newRoomHandler(rooms)

	room := testRoom(t)
	rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
	rooms.On("SaveWithLock", mock.Anything, room).Return(nil)

	w := performRequest(t, h.SetMaintenance, http.MethodPost, "/rooms/"+room.ID.String()+"/maintenance", nil, idParams(room.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, leasing.RoomStatusMaintenance, room.Status)

	w = performRequest(t, h.ClearMaintenance, http.MethodDelete, "/rooms/"+room.ID.String()+"/maintenance", nil, idParams(room.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, leasing.RoomStatusAvailable, room.Status)
}

func TestRoomHandler_DeleteRoom(t *testing.T) {
	t.Run("deletes an available room", func(t *testing.T) {
		rooms := &MockRoomRepository{}
		h := newRoomHandler(rooms)

		room := testRoom(t)
		rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)
		rooms.On("Delete", mock.Anything, room.ID).Return(nil)

		w := performRequest(t, h.DeleteRoom, http.MethodDelete, "/rooms/"+room.ID.String(), nil, idParams(room.ID))
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("occupied room is 422", func(t *testing.T) {
		rooms := &MockRoomRepository{}
		h := newRoomHandler(rooms)

		room := testRoom(t)
		room.Status = leasing.RoomStatusOccupied
		rooms.On("FindByID", mock.Anything, room.ID).Return(room, nil)

		w := performRequest(t, h.DeleteRoom, http.MethodDelete, "/rooms/"+room.ID.String(), nil, idParams(room.ID))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRoomHandler_ListRooms(t *testing.T) {
	rooms := &MockRoomRepository{}
	h := newRoomHandler(rooms)

	status := leasing.RoomStatusAvailable
	expected := leasing.RoomFilter{Page: 1, PageSize: 20, Status: &status}
	rooms.On("FindAll", mock.Anything, expected).Return([]leasing.Room{*testRoom(t)}, nil)
	rooms.On("Count", mock.Anything, expected).Return(int64(1), nil)

	w := performRequest(t, h.ListRooms, http.MethodGet, "/rooms?status=AVAILABLE", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
}
