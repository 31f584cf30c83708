package student_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/fees"
	"github.com/shuleapp/shule/core/student"
	"github.com/shuleapp/shule/core/user"
	notifysvc "github.com/shuleapp/shule/services/notifier"
	inmemblob "github.com/shuleapp/shule/storage/blob/inmem"
	inmemkv "github.com/shuleapp/shule/storage/kv/inmem"
	testutil "github.com/shuleapp/shule/tests"
)

func setup(t *testing.T) (*student.Service, *user.Service, *fees.Service, *inmemblob.Store, *notifysvc.RecordingNotifier) {
	t.Helper()
	kv := inmemkv.New()
	blobs := inmemblob.New()
	notifier := notifysvc.NewRecordingNotifier()
	logger := testutil.NopLogger{}

	usrSvc := user.NewService(kv, blobs, logger, notifier)
	feeSvc := fees.NewService(kv, logger, notifier)
	stSvc := student.NewService(kv, usrSvc, feeSvc, blobs, logger, notifier)
	return stSvc, usrSvc, feeSvc, blobs, notifier
}

func enroll(t *testing.T, svc *student.Service, name, class string) student.Student {
	t.Helper()
	st, err := svc.Enroll(student.NewStudent{Name: name, Class: class})
	if err != nil {
		t.Fatalf("enroll() failed: %v", err)
	}
	return st
}

func Test_Service_NewDraft_defaultsFees(t *testing.T) {
	svc, _, feeSvc, _, _ := setup(t)
	require.NoError(t, feeSvc.SetClassFee("Grade 5", 8000))

	draft := svc.NewDraft("Grade 5")
	assert.Equal(t, float64(8000), draft.TotalFees)

	// a class without a fee entry defaults to 0
	assert.Zero(t, svc.NewDraft("Grade 9").TotalFees)
}

func Test_Service_Enroll_sequentialIDs(t *testing.T) {
	svc, _, _, _, _ := setup(t)

	first := enroll(t, svc, "Neema Said", "Grade 5")
	second := enroll(t, svc, "Baraka Juma", "Grade 5")

	assert.Equal(t, "ST001", first.ID)
	assert.Equal(t, "ST002", second.ID)
}

func Test_Service_Enroll_withLogin(t *testing.T) {
	svc, usrSvc, _, _, _ := setup(t)

	st, err := svc.Enroll(student.NewStudent{
		Name:            "Neema Said",
		Class:           "Grade 5",
		CreateLogin:     true,
		Password:        "studpass",
		PasswordConfirm: "studpass",
	})
	require.NoError(t, err)

	// the paired account shares the student's ID and carries role Student
	usr, err := usrSvc.Get(st.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStudent, usr.Role)
	assert.Equal(t, st.Name, usr.Name)
	assert.Equal(t, "studpass", usr.Password)
}

func Test_Service_Enroll_partialLoginFailure(t *testing.T) {
	svc, usrSvc, _, _, notifier := setup(t)

	// occupy the ID the enrollment will generate
	_, err := usrSvc.Create(user.NewUser{
		UserID:          "ST001",
		Name:            "Imposter",
		Role:            user.RoleStudent,
		Password:        "hunter22",
		PasswordConfirm: "hunter22",
	})
	require.NoError(t, err)

	st, err := svc.Enroll(student.NewStudent{
		Name:            "Neema Said",
		Class:           "Grade 5",
		CreateLogin:     true,
		Password:        "studpass",
		PasswordConfirm: "studpass",
	})
	assert.ErrorIs(t, err, student.ErrPartialEnroll)

	// the student record stands and the operator was notified
	stored, getErr := svc.Get(st.ID)
	require.NoError(t, getErr)
	assert.Equal(t, "Neema Said", stored.Name)
	assert.NotEmpty(t, notifier.Errors)
}

func Test_Service_Payments(t *testing.T) {
	svc, _, _, _, _ := setup(t)
	st := enroll(t, svc, "Neema Said", "Grade 5")

	updated, err := svc.RecordPayment(st.ID, student.NewPayment{
		Amount:     3000,
		FeesType:   "Tuition Fee",
		Instrument: "Cash",
	})
	require.NoError(t, err)
	updated, err = svc.RecordPayment(st.ID, student.NewPayment{
		Amount:            2000,
		FeesType:          "Miscellaneous Fee",
		Instrument:        "Cheque",
		InstrumentDetails: "CHQ-1189",
	})
	require.NoError(t, err)

	assert.Equal(t, float64(5000), updated.FeesPaid)
	require.Len(t, updated.PaymentHistory, 2)

	// voiding keeps the record but drops it from the paid total
	updated, err = svc.VoidPayment(st.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, float64(2000), updated.FeesPaid)
	require.Len(t, updated.PaymentHistory, 2)
	assert.True(t, updated.PaymentHistory[0].IsDeleted)

	_, err = svc.VoidPayment(st.ID, 5)
	assert.ErrorIs(t, err, student.ErrNoSuchPayment)
}

func Test_Service_Delete_cleansUp(t *testing.T) {
	svc, usrSvc, _, blobs, _ := setup(t)

	// a second account so the last-user rule does not block the paired delete
	_, err := usrSvc.Create(user.NewUser{
		Name: "Head Admin", Role: user.RoleAdmin, Password: "adminpwd", PasswordConfirm: "adminpwd",
	})
	require.NoError(t, err)

	st, err := svc.Enroll(student.NewStudent{
		Name: "Neema Said", Class: "Grade 5",
		CreateLogin: true, Password: "studpass", PasswordConfirm: "studpass",
	})
	require.NoError(t, err)
	_, err = svc.SetPhoto(st.ID, []byte("jpeg-bytes"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(st.ID))

	_, err = svc.Get(st.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = usrSvc.Get(st.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = blobs.Get(st.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func Test_Service_SetPhoto_writeThenFlag(t *testing.T) {
	svc, _, _, blobs, notifier := setup(t)
	st := enroll(t, svc, "Neema Said", "Grade 5")

	blobs.FailWrites = assert.AnError
	_, err := svc.SetPhoto(st.ID, []byte("jpeg-bytes"))
	require.Error(t, err)

	stored, err := svc.Get(st.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasPhoto)
	assert.NotEmpty(t, notifier.Errors)

	blobs.FailWrites = nil
	updated, err := svc.SetPhoto(st.ID, []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, updated.HasPhoto)
}
