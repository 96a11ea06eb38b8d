package role_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/watchcask/allio/pkg/allio/role"
)

func TestTextFieldsHaveStringValueType(t *testing.T) {
	assert.Equal(t, role.ValueTypeString, role.TextField.ValueType())
	assert.Equal(t, role.ValueTypeString, role.TextArea.ValueType())
	assert.Equal(t, role.ValueTypeString, role.SearchField.ValueType())
	assert.True(t, role.TextField.IsWritable())
}

func TestCheckboxesHaveBooleanValueType(t *testing.T) {
	assert.Equal(t, role.ValueTypeBoolean, role.Checkbox.ValueType())
	assert.Equal(t, role.ValueTypeBoolean, role.Switch.ValueType())
	assert.True(t, role.Checkbox.IsWritable())
}

func TestNumericRolesHaveNumberValueType(t *testing.T) {
	assert.Equal(t, role.ValueTypeNumber, role.Slider.ValueType())
	assert.Equal(t, role.ValueTypeNumber, role.Stepper.ValueType())
	assert.Equal(t, role.ValueTypeNumber, role.ProgressBar.ValueType())
}

func TestStepperExpectsInteger(t *testing.T) {
	assert.True(t, role.Stepper.ExpectsInteger())
	assert.False(t, role.Slider.ExpectsInteger())
	assert.False(t, role.ProgressBar.ExpectsInteger())
}

func TestButtonsHaveNoValueType(t *testing.T) {
	assert.Equal(t, role.ValueTypeNone, role.Button.ValueType())
	assert.False(t, role.Button.IsWritable())
}

func TestTextInputsAutoWatch(t *testing.T) {
	assert.True(t, role.TextField.AutoWatchOnFocus())
	assert.True(t, role.TextArea.AutoWatchOnFocus())
	assert.False(t, role.Button.AutoWatchOnFocus())
	assert.False(t, role.Checkbox.AutoWatchOnFocus())
}

func TestDestroyedIsAlwaysSubscribed(t *testing.T) {
	assert.Contains(t, role.Always, role.Destroyed)
	assert.Len(t, role.Always, 1)
}

func TestTextFieldsGetValueAndSelectionNotifications(t *testing.T) {
	notifs := role.ForWatching(role.TextField)
	assert.Contains(t, notifs, role.ValueChanged)
	assert.Contains(t, notifs, role.SelectionChanged)
}

func TestWindowsGetTitleChangeNotifications(t *testing.T) {
	notifs := role.ForWatching(role.Window)
	assert.Contains(t, notifs, role.TitleChanged)
}

func TestButtonsGetNoExtraNotifications(t *testing.T) {
	assert.Empty(t, role.ForWatching(role.Button))
}

func TestFocusAndSelectionAreAppLevel(t *testing.T) {
	assert.True(t, role.FocusChanged.IsAppLevel())
	assert.True(t, role.SelectionChanged.IsAppLevel())
	assert.False(t, role.ValueChanged.IsAppLevel())
}
