/*
The package message implements decoding and encoding of the AIS messages 1 to 24 that are carried in the
armored payload of VDM and VDO sentences. Other message types are kept undecoded as Raw. This
implementation is based on:

	[AIS]  ITU-R M.1371-5 (2014-02)
	[NMEA] IEC 61162-1 Ed. 5 (2016-08)

The messages 6, 8, 12 and 14 can also be encapsulated in ABM and BBM sentences for transmission through
a transponder, see EncodeEncapsulated and DecodeEncapsulated.

Abbreviations:
MMSI: Maritime Mobile Service Identity
ASM: Application Specific Message
DAC: Designated Area Code
FI: Function Identifier

Restrictions:
Spare bits are not preserved, they are always encoded as zero.
*/
package message
