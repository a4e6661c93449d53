package platform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func init() {
	if err := gpioreg.Register(&gpiotest.Pin{N: "METER_TEST_POWER", Num: 9017}); err != nil {
		panic(err)
	}
	if err := i2creg.Register("METER_TEST_BUS", nil, 9001, func() (i2c.BusCloser, error) {
		return &i2ctest.Record{}, nil
	}); err != nil {
		panic(err)
	}
}

func TestLookup(t *testing.T) {
	hw, err := Lookup("METER_TEST_BUS", "METER_TEST_POWER")
	require.NoError(t, err)
	defer hw.Close()
	require.NoError(t, hw.Rail.Out(gpio.High))
	require.NoError(t, hw.Bus.Tx(0x08, []byte{0x01}, nil))
	rec := hw.Bus.(*i2ctest.Record)
	require.Len(t, rec.Ops, 1)
	require.Equal(t, uint16(0x08), rec.Ops[0].Addr)
}

func TestLookupErrors(t *testing.T) {
	_, err := Lookup("METER_TEST_BUS", "NO_SUCH_PIN")
	require.True(t, errors.Is(err, ErrPinNotFound))
	_, err = Lookup("NO_SUCH_BUS", "METER_TEST_POWER")
	require.Error(t, err)
}
