package chart

// JavaScript callbacks embedded into chart options. They are emitted verbatim inside a JSON
// document, so string literals use single quotes only.

const currencyAxisJS = `function (value) {
	return 'Rp ' + Math.round(value).toLocaleString('en-US');
}`

// overlayTooltipJS lists every visible series at the hovered date, skipping the band helpers
// and appending the bounds carried in the forecast points.
const overlayTooltipJS = `function (params) {
	if (!params || !params.length) { return ''; }
	var rp = function (v) {
		if (v === null || v === undefined) { return '-'; }
		return 'Rp ' + Math.round(v).toLocaleString('en-US');
	};
	var out = '<b>' + params[0].value[2] + '</b>';
	params.forEach(function (p) {
		if (p.seriesId === '` + bandBaseID + `' || p.seriesId === '` + bandID + `') { return; }
		out += '<br/>' + p.marker + p.seriesName + ': ' + rp(p.value[1]);
		if (p.value.length > 4) {
			out += '<br/>Batas bawah 99%: ' + rp(p.value[3]);
			out += '<br/>Batas atas 99%: ' + rp(p.value[4]);
		}
	});
	return out;
}`

const plainTooltipJS = `function (params) {
	if (!params || !params.length) { return ''; }
	var out = '<b>' + params[0].value[2] + '</b>';
	params.forEach(function (p) {
		out += '<br/>' + p.marker + p.seriesName + ': ' + Number(p.value[1]).toFixed(2);
	});
	return out;
}`
