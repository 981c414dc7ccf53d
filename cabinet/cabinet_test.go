package cabinet

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhub/medhub-api/db"
	"github.com/medhub/medhub-api/entities"
	"github.com/medhub/medhub-api/validation"
)

func date(s string) *time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestReadCSV(t *testing.T) {
	user := uuid.New()
	input := "Name, Dosage ,Quantity,expiry_date,reminder_times,unused\n" +
		"Doliprane,500 mg,16,2027-01-31,08:00;20:00,x\n" +
		"Vitamin D,,,,,\n"

	result, err := ReadCSV(strings.NewReader(input), user, validation.NewDataValidator())
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Medicines, 2)

	m := result.Medicines[0]
	assert.Equal(t, user, m.UserID)
	assert.Equal(t, "Doliprane", m.Name)
	assert.Equal(t, "500 mg", m.Dosage)
	assert.Equal(t, 16, m.Quantity)
	require.NotNil(t, m.ExpiryDate)
	assert.Equal(t, "2027-01-31", m.ExpiryDate.Format(DateLayout))
	assert.Equal(t, []string{"08:00", "20:00"}, m.ReminderTimes)

	assert.Equal(t, "Vitamin D", result.Medicines[1].Name)
	assert.Nil(t, result.Medicines[1].ExpiryDate)
	assert.Empty(t, result.Medicines[1].ReminderTimes)
}

func TestReadCSVRowErrors(t *testing.T) {
	input := "name,quantity,expiry_date,reminder_times\n" +
		"Doliprane,10,2027-01-31,08:00\n" +
		",3,,\n" +
		"Ibuprofen,abc,,\n" +
		"Amoxicillin,2,31/01/2027,\n" +
		"Vitamin D,1,,25:00\n"

	result, err := ReadCSV(strings.NewReader(input), uuid.New(), validation.NewDataValidator())
	require.NoError(t, err)
	require.Len(t, result.Medicines, 1)
	require.Len(t, result.Errors, 4)

	expected := []struct {
		row   int
		field string
	}{
		{3, "name"},
		{4, "quantity"},
		{5, "expiry_date"},
		{6, "reminder_times[0]"},
	}
	for i, e := range expected {
		assert.Equal(t, e.row, result.Errors[i].Row)
		require.NotEmpty(t, result.Errors[i].Details)
		assert.Equal(t, e.field, result.Errors[i].Details[0].Field)
	}
}

func TestReadCSVLatin1(t *testing.T) {
	input := []byte("name;notes\nCaf\xe9ine;r\xe9glisse\n")

	result, err := ReadCSV(bytes.NewReader(input), uuid.New(), validation.NewDataValidator())
	require.NoError(t, err)
	require.Len(t, result.Medicines, 1)
	assert.Equal(t, "Caféine", result.Medicines[0].Name)
	assert.Equal(t, "réglisse", result.Medicines[0].Notes)
}

func TestReadCSVByteOrderMark(t *testing.T) {
	input := "\xEF\xBB\xBFname\nDoliprane\n"

	result, err := ReadCSV(strings.NewReader(input), uuid.New(), validation.NewDataValidator())
	require.NoError(t, err)
	require.Len(t, result.Medicines, 1)
	assert.Equal(t, "Doliprane", result.Medicines[0].Name)
}

func TestReadCSVRejectsFile(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no name column", "dosage,quantity\n500 mg,2\n"},
		{"bad quoting", "name\n\"Doliprane\n"},
		{"too many rows", "name\n" + strings.Repeat("Doliprane\n", MaxImportRows+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), uuid.New(), validation.NewDataValidator())
			var verr *validation.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "file", verr.Details[0].Field)
		})
	}
}

func TestWriteCSVReadBack(t *testing.T) {
	medicines := []entities.Medicine{
		{Name: "Doliprane", Dosage: "1 g", Quantity: 8, ExpiryDate: date("2027-03-01"), ReminderTimes: []string{"08:00", "20:00"}, Notes: "after meals, with water"},
		{Name: "Zyrtec", Quantity: 0, ReminderTimes: []string{}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, medicines))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(csvHeader, ",")+"\n"))

	result, err := ReadCSV(&buf, uuid.New(), validation.NewDataValidator())
	require.NoError(t, err)
	require.Len(t, result.Medicines, 2)
	assert.Equal(t, "after meals, with water", result.Medicines[0].Notes)
	assert.Equal(t, medicines[0].ReminderTimes, result.Medicines[0].ReminderTimes)
	assert.Equal(t, medicines[0].ExpiryDate.Format(DateLayout), result.Medicines[0].ExpiryDate.Format(DateLayout))
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
	medicines := []entities.Medicine{
		{Name: "expired", Quantity: 10, ExpiryDate: date("2026-06-01"), ReminderTimes: []string{"08:00"}},
		{Name: "expiring", Quantity: 3, ExpiryDate: date("2026-07-01")},
		{Name: "no expiry", Quantity: 0, ReminderTimes: []string{"08:00", "20:00"}},
		{Name: "fine", Quantity: 20, ExpiryDate: date("2027-01-01")},
		{Name: "expires today", Quantity: 6, ExpiryDate: date("2026-06-15")},
	}

	assert.Equal(t, Stats{
		Total:           5,
		Expired:         1,
		ExpiringSoon:    2,
		LowStock:        2,
		WithReminders:   2,
		RemindersPerDay: 2,
	}, ComputeStats(medicines, now))
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil, time.Now()))
}

func TestRemindersFor(t *testing.T) {
	day := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	zinc, aspirin := uuid.New(), uuid.New()
	medicines := []entities.Medicine{
		{ID: zinc, Name: "Zinc", ReminderTimes: []string{"08:00"}},
		{ID: aspirin, Name: "Aspirin", Dosage: "75 mg", ReminderTimes: []string{"08:00", "07:30"}},
		{ID: uuid.New(), Name: "Old", ExpiryDate: date("2026-01-01"), ReminderTimes: []string{"06:00"}},
		{ID: uuid.New(), Name: "No reminders"},
	}

	got := RemindersFor(medicines, day)
	assert.Equal(t, []Reminder{
		{Time: "07:30", MedicineID: aspirin, Name: "Aspirin", Dosage: "75 mg"},
		{Time: "08:00", MedicineID: aspirin, Name: "Aspirin", Dosage: "75 mg"},
		{Time: "08:00", MedicineID: zinc, Name: "Zinc"},
	}, got)

	assert.NotNil(t, RemindersFor(nil, day))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, Names([]entities.Medicine{{Name: "A"}, {Name: "B"}}))
}

func TestPGRepositoryIntegration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, url, 4, 0)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewPGRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	owner, stranger := uuid.New(), uuid.New()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM cabinet_medicines WHERE user_id = ANY($1)`, []uuid.UUID{owner, stranger})
	})

	m := &entities.Medicine{UserID: owner, Name: "Doliprane", Quantity: 8, ExpiryDate: date("2027-03-01"), ReminderTimes: []string{"08:00"}}
	require.NoError(t, repo.Create(ctx, m))
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.False(t, m.CreatedAt.IsZero())

	got, err := repo.Get(ctx, owner, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doliprane", got.Name)
	assert.Equal(t, []string{"08:00"}, got.ReminderTimes)

	_, err = repo.Get(ctx, stranger, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repo.CreateMany(ctx, []entities.Medicine{
		{UserID: owner, Name: "aspirin"},
		{UserID: owner, Name: "Zyrtec"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list, err := repo.List(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"aspirin", "Doliprane", "Zyrtec"}, Names(list))

	m.Quantity = 4
	require.NoError(t, repo.Update(ctx, m))
	got, err = repo.Get(ctx, owner, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Quantity)

	strangerCopy := *m
	strangerCopy.UserID = stranger
	assert.ErrorIs(t, repo.Update(ctx, &strangerCopy), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, stranger, m.ID), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, owner, m.ID))
	assert.ErrorIs(t, repo.Delete(ctx, owner, m.ID), ErrNotFound)
}
