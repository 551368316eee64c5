package bme680

import "fmt"

// calibration holds the factory trim coefficients read from the sensor's
// NVM, laid out per the Bosch reference driver.
type calibration struct {
	t1 uint16
	t2 int16
	t3 int8

	p1  uint16
	p2  int16
	p3  int8
	p4  int16
	p5  int16
	p6  int8
	p7  int8
	p8  int16
	p9  int16
	p10 uint8

	h1 uint16
	h2 uint16
	h3 int8
	h4 int8
	h5 int8
	h6 uint8
	h7 int8

	gh1 int8
	gh2 int16
	gh3 int8

	resHeatRange uint8
	resHeatVal   int8
	rangeSwErr   int8
}

func (d *Dev) readCalibration() error {
	c1, err := d.readRegs(regCoeff1, 25)
	if err != nil {
		return fmt.Errorf("read calibration block 1: %w", err)
	}
	c2, err := d.readRegs(regCoeff2, 16)
	if err != nil {
		return fmt.Errorf("read calibration block 2: %w", err)
	}
	coeff := append(c1, c2...)

	le16 := func(i int) uint16 { return uint16(coeff[i]) | uint16(coeff[i+1])<<8 }

	cal := &d.cal
	cal.t2 = int16(le16(1))
	cal.t3 = int8(coeff[3])
	cal.p1 = le16(5)
	cal.p2 = int16(le16(7))
	cal.p3 = int8(coeff[9])
	cal.p4 = int16(le16(11))
	cal.p5 = int16(le16(13))
	cal.p7 = int8(coeff[15])
	cal.p6 = int8(coeff[16])
	cal.p8 = int16(le16(19))
	cal.p9 = int16(le16(21))
	cal.p10 = coeff[23]
	cal.h2 = uint16(coeff[25])<<4 | uint16(coeff[26])>>4
	cal.h1 = uint16(coeff[27])<<4 | uint16(coeff[26])&0x0F
	cal.h3 = int8(coeff[28])
	cal.h4 = int8(coeff[29])
	cal.h5 = int8(coeff[30])
	cal.h6 = coeff[31]
	cal.h7 = int8(coeff[32])
	cal.t1 = le16(33)
	cal.gh2 = int16(le16(35))
	cal.gh1 = int8(coeff[37])
	cal.gh3 = int8(coeff[38])

	v, err := d.readReg(regResHeatVal)
	if err != nil {
		return fmt.Errorf("read res_heat_val: %w", err)
	}
	cal.resHeatVal = int8(v)

	v, err = d.readReg(regResHeatRange)
	if err != nil {
		return fmt.Errorf("read res_heat_range: %w", err)
	}
	cal.resHeatRange = (v & 0x30) >> 4

	v, err = d.readReg(regRangeSwErr)
	if err != nil {
		return fmt.Errorf("read range_sw_err: %w", err)
	}
	cal.rangeSwErr = int8(v&0xF0) / 16

	return nil
}

// temperature converts a raw temperature reading to degrees C and the t_fine
// intermediate used by pressure compensation.
func (c *calibration) temperature(adc uint32) (degC, tFine float64) {
	var1 := (float64(adc)/16384.0 - float64(c.t1)/1024.0) * float64(c.t2)
	var2 := float64(adc)/131072.0 - float64(c.t1)/8192.0
	var2 = var2 * var2 * float64(c.t3) * 16.0
	tFine = var1 + var2
	return tFine / 5120.0, tFine
}

// pressure converts a raw pressure reading to hPa.
func (c *calibration) pressure(adc uint32, tFine float64) float64 {
	var1 := tFine/2.0 - 64000.0
	var2 := var1 * var1 * (float64(c.p6) / 131072.0)
	var2 += var1 * float64(c.p5) * 2.0
	var2 = var2/4.0 + float64(c.p4)*65536.0
	var1 = (float64(c.p3)*var1*var1/16384.0 + float64(c.p2)*var1) / 524288.0
	var1 = (1.0 + var1/32768.0) * float64(c.p1)
	if var1 == 0 {
		return 0
	}

	p := 1048576.0 - float64(adc)
	p = (p - var2/4096.0) * 6250.0 / var1
	var1 = float64(c.p9) * p * p / 2147483648.0
	var2 = p * (float64(c.p8) / 32768.0)
	var3 := (p / 256.0) * (p / 256.0) * (p / 256.0) * (float64(c.p10) / 131072.0)
	p += (var1 + var2 + var3 + float64(c.p7)*128.0) / 16.0
	return p / 100.0
}

// humidity converts a raw humidity reading to percent relative humidity,
// clamped to [0,100].
func (c *calibration) humidity(adc uint16, tempC float64) float64 {
	var1 := float64(adc) - (float64(c.h1)*16.0 + float64(c.h3)/2.0*tempC)
	var2 := var1 * (float64(c.h2) / 262144.0 *
		(1.0 + float64(c.h4)/16384.0*tempC + float64(c.h5)/1048576.0*tempC*tempC))
	var3 := float64(c.h6) / 16384.0
	var4 := float64(c.h7) / 2097152.0

	h := var2 + (var3+var4*tempC)*var2*var2
	switch {
	case h > 100:
		return 100
	case h < 0:
		return 0
	default:
		return h
	}
}

// Gas range constants from the Bosch reference driver.
var (
	gasRangeC1 = [16]float64{
		1, 1, 1, 1, 1, 0.99, 1, 0.992, 1, 1, 0.998, 0.995, 1, 0.99, 1, 1,
	}
	gasRangeC2 = [16]float64{
		8000000, 4000000, 2000000, 1000000, 499500.4995, 248262.1648, 125000,
		63004.03226, 31281.28128, 15625, 7812.5, 3906.25, 1953.125, 976.5625,
		488.28125, 244.140625,
	}
)

// gasResistance converts a raw gas reading and range to ohms.
func (c *calibration) gasResistance(adc uint16, gasRange uint8) float64 {
	var1 := (1340.0 + 5.0*float64(c.rangeSwErr)) * gasRangeC1[gasRange]
	return var1 * gasRangeC2[gasRange] / (float64(adc) - 512.0 + var1)
}

// heaterResistance converts a target heater temperature into the res_heat
// register value, compensated for the current ambient temperature.
func (c *calibration) heaterResistance(ambientC float64, targetC int) byte {
	if targetC > 400 {
		targetC = 400
	}
	var1 := float64(c.gh1)/16.0 + 49.0
	var2 := float64(c.gh2)/32768.0*0.0005 + 0.00235
	var3 := float64(c.gh3) / 1024.0
	var4 := var1 * (1.0 + var2*float64(targetC))
	var5 := var4 + var3*ambientC
	return byte(3.4 * (var5*(4.0/(4.0+float64(c.resHeatRange)))*
		(1.0/(1.0+float64(c.resHeatVal)*0.002)) - 25.0))
}
